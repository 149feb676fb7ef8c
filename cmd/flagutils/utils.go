// Copyright 2021 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package flagutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

const (
	WaitFlag     = "wait"
	TimeoutFlag  = "timeout"
	IntervalFlag = "interval"
	ForFlag      = "for"

	ConditionExists = "exists"
	ConditionGone   = "gone"
	ConditionStatus = "status"
	ConditionField  = "field"
)

// AddWaitFlags binds --timeout and --interval to opts. An absent
// --timeout leaves opts.Timeout nil so the session default applies;
// --timeout=0 checks the condition once.
func AddWaitFlags(cmd *cobra.Command, opts *resource.WaitOptions) {
	cmd.Flags().Var(&timeoutValue{p: &opts.Timeout}, TimeoutFlag,
		"How long to wait. Defaults to the configured timeout. Zero checks the condition once.")
	cmd.Flags().DurationVar(&opts.Interval, IntervalFlag, 0,
		"How often to poll while waiting. Zero means the configured default.")
}

// timeoutValue is a duration flag that stays nil until it is set.
type timeoutValue struct {
	p **time.Duration
}

func (v *timeoutValue) String() string {
	if *v.p == nil {
		return ""
	}
	return (*v.p).String()
}

func (v *timeoutValue) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s)
	}
	*v.p = &d
	return nil
}

func (v *timeoutValue) Type() string {
	return "duration"
}

// WaitCondition is a parsed --for flag.
type WaitCondition struct {
	Type  string
	Path  string
	Value string
}

func (c WaitCondition) String() string {
	switch c.Type {
	case ConditionStatus:
		return c.Type + "=" + c.Value
	case ConditionField:
		return c.Type + "=" + c.Path + "=" + c.Value
	default:
		return c.Type
	}
}

// ParseWaitCondition parses one of
//
//	exists
//	gone
//	status=VALUE
//	field=JSONPATH=VALUE
//
// The value of a field condition starts after the last "=", so the path
// may contain filter expressions.
func ParseWaitCondition(s string) (WaitCondition, error) {
	kind, rest, hasValue := strings.Cut(s, "=")
	switch kind {
	case ConditionExists, ConditionGone:
		if hasValue {
			return WaitCondition{}, fmt.Errorf("condition %q takes no value", kind)
		}
		return WaitCondition{Type: kind}, nil
	case ConditionStatus:
		if rest == "" {
			return WaitCondition{}, fmt.Errorf("condition %q needs a value, e.g. status=Running", kind)
		}
		return WaitCondition{Type: kind, Value: rest}, nil
	case ConditionField:
		i := strings.LastIndex(rest, "=")
		if i <= 0 {
			return WaitCondition{}, fmt.Errorf("condition %q needs a path and a value, e.g. field=$.spec.running=true", kind)
		}
		return WaitCondition{Type: kind, Path: rest[:i], Value: rest[i+1:]}, nil
	default:
		return WaitCondition{}, fmt.Errorf("unknown wait condition %q: use exists, gone, status=VALUE or field=PATH=VALUE", s)
	}
}
