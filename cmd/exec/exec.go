// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package exec

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

func GetRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *Runner {
	r := &Runner{
		factory:   f,
		ioStreams: ioStreams,
	}
	c := &cobra.Command{
		Use:   "exec POD -- COMMAND [ARGS...]",
		Short: i18n.T("Run a command in a pod"),
		Long: `Run a command in a pod through kubectl exec and print its combined output.

	# List the host NICs seen by a privileged pod
	vharness exec privileged-abc -- ls /sys/class/net
`,
		Args: cobra.MinimumNArgs(2),
		Run:  common.RunFunc(r.RunE),
	}
	c.Flags().StringVarP(&r.container, "container", "c", "",
		"Container name. Defaults to the pod default container.")
	r.Command = c
	return r
}

func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return GetRunner(f, ioStreams).Command
}

// Runner captures the parameters of the exec command.
type Runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	container string
}

func (r *Runner) RunE(cmd *cobra.Command, args []string) error {
	ns, err := r.factory.Namespace()
	if err != nil {
		return err
	}
	s, err := r.factory.Session(common.Context(cmd))
	if err != nil {
		return err
	}
	pod := s.Pod(ns, args[0])
	command := strings.Join(args[1:], " ")
	ok, out := pod.Exec(command, r.container)
	if !ok {
		return &resource.CommandError{Identity: pod.Identity(), Command: command, Output: out}
	}
	fmt.Fprint(r.ioStreams.Out, out)
	return nil
}
