// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder returns a probe that replays values and records the fake
// clock offset of every call.
type recorder[T any] struct {
	clock  *clocktesting.FakeClock
	values []T
	errs   []error
	calls  []time.Duration
}

func (r *recorder[T]) probe() (T, error) {
	i := len(r.calls)
	r.calls = append(r.calls, r.clock.Since(t0))
	var v T
	if len(r.values) > 0 {
		v = r.values[min(i, len(r.values)-1)]
	}
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	return v, err
}

func TestNew_Validation(t *testing.T) {
	probe := func() (bool, error) { return true, nil }

	_, err := New(time.Second, 0, probe)
	assert.Error(t, err)
	_, err = New(time.Second, -time.Second, probe)
	assert.Error(t, err)
	_, err = New(-time.Second, time.Second, probe)
	assert.Error(t, err)
	_, err = New[bool](time.Second, time.Second, nil)
	assert.Error(t, err)

	s, err := New(0, time.Second, probe)
	require.NoError(t, err)
	assert.Equal(t, Running, s.State())
	assert.Equal(t, 0, s.Probes())
}

func TestWaitForFuncStatus_AlwaysFalse(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	r := &recorder[bool]{clock: fc, values: []bool{false}}

	s, err := New(5*time.Second, 2*time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)

	assert.False(t, WaitForFuncStatus(s, true))
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 4 * time.Second}, r.calls)
	assert.Equal(t, 3, s.Probes())
	assert.Equal(t, TimedOut, s.State())
	assert.Equal(t, 5*time.Second, fc.Since(t0))
}

func TestWaitForFuncStatus_PendingThenRunning(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	r := &recorder[string]{clock: fc, values: []string{"Pending", "Pending", "Running"}}

	s, err := New(120*time.Second, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)

	assert.True(t, WaitForFuncStatus(s, "Running"))
	assert.Equal(t, 3, s.Probes())
	assert.Equal(t, 2*time.Second, fc.Since(t0))
	assert.Equal(t, Satisfied, s.State())
}

func TestZeroTimeoutSamplesOnce(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	r := &recorder[bool]{clock: fc, values: []bool{false}}

	s, err := New(0, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)

	assert.False(t, WaitForFuncStatus(s, true))
	assert.Equal(t, 1, s.Probes())
	assert.Equal(t, time.Duration(0), fc.Since(t0))

	r = &recorder[bool]{clock: fc, values: []bool{true}}
	s, err = New(0, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)
	assert.True(t, WaitForFuncStatus(s, true))
	assert.Equal(t, 1, s.Probes())
}

func TestProbeErrorsAreNotYet(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	notYet := errors.New("not found")
	r := &recorder[string]{
		clock:  fc,
		values: []string{"", "", "Active"},
		errs:   []error{notYet, notYet},
	}

	s, err := New(10*time.Second, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)
	assert.True(t, WaitForFuncStatus(s, "Active"))
	assert.Equal(t, 3, s.Probes())
}

func TestIteratorMode(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	notYet := errors.New("field missing")
	r := &recorder[int]{clock: fc, values: []int{0, 1, 2, 3}, errs: []error{notYet}}

	s, err := New(3*time.Second, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)

	var samples []Sample[int]
	for {
		sample, ok := s.Next()
		if !ok {
			break
		}
		samples = append(samples, sample)
	}
	require.Len(t, samples, 4)
	assert.Equal(t, notYet, samples[0].Err)
	assert.Equal(t, 3, samples[3].Value)
	assert.Equal(t, TimedOut, s.State())

	// exhausted samplers never probe again
	_, ok := s.Next()
	assert.False(t, ok)
	assert.Equal(t, 4, s.Probes())
}

func TestStopEndsIteration(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	r := &recorder[int]{clock: fc, values: []int{1}}

	s, err := New(time.Minute, time.Second, r.probe, WithClock(fc))
	require.NoError(t, err)
	_, ok := s.Next()
	require.True(t, ok)
	s.Stop()

	_, ok = s.Next()
	assert.False(t, ok)
	assert.Equal(t, Satisfied, s.State())
	assert.Equal(t, 1, s.Probes())
	assert.Equal(t, time.Duration(0), s.Elapsed())
}

func TestPoll(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	r := &recorder[int]{clock: fc, values: []int{1, 2, 3}}

	ok, err := Poll(time.Minute, time.Second, r.probe, func(v int) bool { return v >= 2 }, WithClock(fc))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, r.calls, 2)

	_, err = Poll(time.Minute, 0, r.probe, func(int) bool { return true })
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Satisfied", Satisfied.String())
	assert.Equal(t, "TimedOut", TimedOut.String())
	assert.Equal(t, "State(7)", State(7).String())
}
