// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sigs.k8s.io/virt-harness/pkg/object"
)

// TimeoutError is returned by create and delete calls that were asked to
// wait when the awaited condition did not hold within the timeout. Plain
// waits report the same outcome as false instead.
type TimeoutError struct {
	Identity  object.ResourceIdentity
	Condition string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s to be %s", e.Timeout, e.Identity, e.Condition)
}

// IsTimeout returns true if err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// CommandError is returned when a side-channel command fails.
type CommandError struct {
	Identity object.ResourceIdentity
	Command  string
	Output   string
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("command %q for %s failed", e.Command, e.Identity)
	}
	return fmt.Sprintf("command %q for %s failed: %s", e.Command, e.Identity, out)
}
