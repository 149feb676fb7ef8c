// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"fmt"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

// State is the lifecycle state of a single wait.
type State int

const (
	Running State = iota
	Satisfied
	TimedOut
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Satisfied:
		return "Satisfied"
	case TimedOut:
		return "TimedOut"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sample is the outcome of one probe invocation. Err is set when the
// probe could not evaluate the condition, e.g. because the resource
// does not exist yet.
type Sample[T any] struct {
	Value T
	Err   error
}

// Option configures a Sampler.
type Option func(*options)

type options struct {
	clock clock.Clock
	name  string
}

// WithClock sets the clock used to measure elapsed time and to sleep
// between probes.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithName sets a description used in log messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Sampler polls a probe until a timeout elapses.
type Sampler[T any] struct {
	timeout  time.Duration
	interval time.Duration
	probe    func() (T, error)
	clock    clock.Clock
	name     string

	started bool
	start   time.Time
	probes  int
	state   State
	done    bool
}

// New returns a Sampler that calls probe every interval until timeout
// has elapsed. The interval must be positive and the timeout must not be
// negative. A zero timeout probes exactly once.
func New[T any](timeout, interval time.Duration, probe func() (T, error), opts ...Option) (*Sampler[T], error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sampler interval must be positive, got %s", interval)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("sampler timeout must not be negative, got %s", timeout)
	}
	if probe == nil {
		return nil, fmt.Errorf("sampler probe must not be nil")
	}
	o := options{clock: clock.RealClock{}, name: "sampler"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sampler[T]{
		timeout:  timeout,
		interval: interval,
		probe:    probe,
		clock:    o.clock,
		name:     o.name,
		state:    Running,
	}, nil
}

// Next returns the next sample. The first call probes immediately.
// Later calls sleep for the interval and probe again, unless the next
// probe would fall past the timeout: then the remaining time is slept
// out, the sampler is exhausted and Next returns false.
func (s *Sampler[T]) Next() (Sample[T], bool) {
	if s.done {
		return Sample[T]{}, false
	}
	if !s.started {
		s.started = true
		s.start = s.clock.Now()
		return s.sample(), true
	}
	remaining := s.timeout - s.clock.Since(s.start)
	if remaining < s.interval {
		if remaining > 0 {
			s.clock.Sleep(remaining)
		}
		s.finish(TimedOut)
		klog.V(4).Infof("%s: timed out after %s and %d probes", s.name, s.timeout, s.probes)
		return Sample[T]{}, false
	}
	s.clock.Sleep(s.interval)
	return s.sample(), true
}

func (s *Sampler[T]) sample() Sample[T] {
	s.probes++
	value, err := s.probe()
	if err != nil {
		klog.V(4).Infof("%s: probe %d: %v", s.name, s.probes, err)
	} else {
		klog.V(5).Infof("%s: probe %d: %v", s.name, s.probes, value)
	}
	return Sample[T]{Value: value, Err: err}
}

// WaitFor consumes samples until one is free of error and satisfies
// cond. It returns false if the sampler is exhausted first.
func (s *Sampler[T]) WaitFor(cond func(T) bool) bool {
	for {
		sample, ok := s.Next()
		if !ok {
			return false
		}
		if sample.Err == nil && cond(sample.Value) {
			s.Stop()
			return true
		}
	}
}

// Stop marks the wait as satisfied. Iterator mode callers use it once
// they have seen the sample they were waiting for; further calls to
// Next return false.
func (s *Sampler[T]) Stop() {
	s.finish(Satisfied)
}

func (s *Sampler[T]) finish(state State) {
	if s.done {
		return
	}
	s.done = true
	s.state = state
}

// Probes returns how many times the probe has been invoked.
func (s *Sampler[T]) Probes() int {
	return s.probes
}

// State returns the lifecycle state of the wait.
func (s *Sampler[T]) State() State {
	return s.state
}

// Elapsed returns the time since the first probe.
func (s *Sampler[T]) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return s.clock.Since(s.start)
}

// WaitForFuncStatus consumes the sampler until a probe returns exactly
// result.
func WaitForFuncStatus[T comparable](s *Sampler[T], result T) bool {
	return s.WaitFor(func(v T) bool {
		return v == result
	})
}

// Poll is a shorthand for building a sampler and waiting for cond. An
// invalid timeout or interval is reported as an error.
func Poll[T any](timeout, interval time.Duration, probe func() (T, error), cond func(T) bool, opts ...Option) (bool, error) {
	s, err := New(timeout, interval, probe, opts...)
	if err != nil {
		return false, err
	}
	return s.WaitFor(cond), nil
}
