// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"time"

	"k8s.io/utils/clock"
	"k8s.io/utils/pointer"
	"sigs.k8s.io/virt-harness/pkg/exec"
)

const (
	// DefaultTimeout bounds every wait that does not set its own timeout.
	DefaultTimeout = 120 * time.Second
	// DefaultInterval is the time between two probes of a wait.
	DefaultInterval = 1 * time.Second

	// DefaultKubectl is the command used for pod exec and context switches.
	DefaultKubectl = "kubectl"
	// DefaultVirtctl is the command used to start and stop virtual machines.
	DefaultVirtctl = "virtctl"
)

// WaitOptions bound a single wait.
type WaitOptions struct {
	// Timeout bounds the wait. A nil Timeout uses the handle default, a
	// zero Timeout samples exactly once.
	Timeout *time.Duration
	// Interval is the time between two samples. Zero uses the handle
	// default.
	Interval time.Duration
}

// Within returns WaitOptions bounded by timeout and polling every
// interval. A zero interval uses the handle default.
func Within(timeout, interval time.Duration) WaitOptions {
	return WaitOptions{Timeout: pointer.Duration(timeout), Interval: interval}
}

// TimeoutOr returns the timeout, or def when it is unset.
func (o WaitOptions) TimeoutOr(def time.Duration) time.Duration {
	return pointer.DurationDeref(o.Timeout, def)
}

// CreateOptions control Create.
type CreateOptions struct {
	// Wait blocks until the created resource is observed.
	Wait bool
	WaitOptions
}

// DeleteOptions control Delete.
type DeleteOptions struct {
	// Wait blocks until the resource is no longer observed.
	Wait bool
	WaitOptions
}

// Option configures a Handle.
type Option func(*Handle)

// WithClock sets the clock handed to every sampler of the handle.
func WithClock(c clock.Clock) Option {
	return func(h *Handle) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithRunner sets the runner used for side-channel commands.
func WithRunner(r exec.Runner) Option {
	return func(h *Handle) {
		if r != nil {
			h.runner = r
		}
	}
}

// WithKubectl overrides the kubectl command.
func WithKubectl(command string) Option {
	return func(h *Handle) {
		if command != "" {
			h.kubectl = command
		}
	}
}

// WithVirtctl overrides the virtctl command.
func WithVirtctl(command string) Option {
	return func(h *Handle) {
		if command != "" {
			h.virtctl = command
		}
	}
}

// WithDefaultWait replaces the defaults applied to unset WaitOptions.
func WithDefaultWait(opts WaitOptions) Option {
	return func(h *Handle) {
		if opts.Timeout != nil && *opts.Timeout >= 0 {
			h.defaults.Timeout = *opts.Timeout
		}
		if opts.Interval > 0 {
			h.defaults.Interval = opts.Interval
		}
	}
}

// waitBounds are WaitOptions with the handle defaults applied.
type waitBounds struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (h *Handle) resolve(opts WaitOptions) waitBounds {
	b := waitBounds{Timeout: opts.TimeoutOr(h.defaults.Timeout), Interval: opts.Interval}
	if b.Interval == 0 {
		b.Interval = h.defaults.Interval
	}
	return b
}

// ResolveWaitOptions returns opts with unset values replaced by the
// handle defaults.
func (h *Handle) ResolveWaitOptions(opts WaitOptions) WaitOptions {
	b := h.resolve(opts)
	return Within(b.Timeout, b.Interval)
}
