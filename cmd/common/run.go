// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"

	"github.com/spf13/cobra"
	"sigs.k8s.io/virt-harness/pkg/errors"
)

// CommandName is the base name used in user facing messages.
const CommandName = "vharness"

// RunFunc adapts a runE function into a cobra Run function that reports
// errors with their exit codes.
func RunFunc(runE func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		errors.CheckErr(cmd.ErrOrStderr(), runE(cmd, args), CommandName)
	}
}

// Context returns the context of the command, or a background context
// when the command was executed without one.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
