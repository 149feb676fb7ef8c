// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package exec runs external commands on behalf of the resource handles,
// e.g. executing a command inside a pod or starting a virtual machine.
package exec

import (
	"strings"

	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"
)

// Runner runs a command line and reports whether it succeeded together
// with its captured output. The output is opaque text for the caller to
// match or trim.
type Runner interface {
	Run(command string) (bool, string)
}

// RunnerFunc adapts a function into a Runner.
type RunnerFunc func(command string) (bool, string)

func (f RunnerFunc) Run(command string) (bool, string) {
	return f(command)
}

// DefaultShell interprets command lines for the ShellRunner.
const DefaultShell = "/bin/sh"

// ShellRunner runs command lines through a shell. Stdout and stderr are
// captured together; success means exit status zero.
type ShellRunner struct {
	Exec  utilexec.Interface
	Shell string
}

var _ Runner = &ShellRunner{}

// NewShellRunner returns a runner backed by the operating system.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Exec: utilexec.New(), Shell: DefaultShell}
}

func (r *ShellRunner) Run(command string) (bool, string) {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}
	klog.V(2).Infof("running %q", command)
	out, err := r.Exec.Command(shell, "-c", command).CombinedOutput()
	output := string(out)
	if err != nil {
		if exitErr, ok := err.(utilexec.ExitError); ok {
			klog.V(2).Infof("command %q exited with status %d", command, exitErr.ExitStatus())
		} else {
			klog.V(2).Infof("command %q failed: %v", command, err)
			if output == "" {
				output = err.Error()
			}
		}
		return false, output
	}
	klog.V(6).Infof("command %q output:\n%s", command, output)
	return true, output
}

// Command joins a program and its arguments into a command line,
// dropping empty arguments.
func Command(program string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, program)
	for _, a := range args {
		if a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}
