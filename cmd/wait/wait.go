// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/flagutils"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

type waitResolver interface {
	ResolveWaitOptions(opts resource.WaitOptions) resource.WaitOptions
}

// fieldWaiter is implemented by handles that wait on arbitrary fields.
type fieldWaiter interface {
	WaitForField(ctx context.Context, expression, expected string, opts resource.WaitOptions) bool
}

func GetRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *Runner {
	r := &Runner{
		factory:   f,
		ioStreams: ioStreams,
	}
	c := &cobra.Command{
		Use:   "wait KIND NAME --for=CONDITION",
		Short: i18n.T("Wait for a resource to reach a condition"),
		Long: `Wait for a resource to reach a condition.

CONDITION is one of exists, gone, status=VALUE or field=JSONPATH=VALUE.
The status of a virtual machine is its running flag (true or false) or its
printable status; for other kinds it is status.phase.

	# Wait for a virtual machine instance to run
	vharness wait vmi vm-a --for=status=Running --timeout=5m

	# Wait for a pod to be scheduled on a given node
	vharness wait pod virt-launcher-x --for=field=$.spec.nodeName=worker-0
`,
		Args: cobra.ExactArgs(2),
		Run:  common.RunFunc(r.RunE),
	}
	c.Flags().StringVar(&r.condition, flagutils.ForFlag, flagutils.ConditionExists,
		"The condition to wait for.")
	c.Flags().StringVar(&r.apiVersion, "api-version", "",
		"API version of KIND. Required for kinds the harness does not know.")
	flagutils.AddWaitFlags(c, &r.waitOptions)
	r.Command = c
	return r
}

func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return GetRunner(f, ioStreams).Command
}

// Runner captures the parameters of the wait command.
type Runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	condition   string
	apiVersion  string
	waitOptions resource.WaitOptions
}

func (r *Runner) RunE(cmd *cobra.Command, args []string) error {
	cond, err := flagutils.ParseWaitCondition(r.condition)
	if err != nil {
		return err
	}
	ctx := common.Context(cmd)
	res, err := common.ResourceFor(ctx, r.factory, args[0], r.apiVersion, args[1])
	if err != nil {
		return err
	}
	var ok bool
	switch cond.Type {
	case flagutils.ConditionExists:
		ok = res.Wait(ctx, r.waitOptions)
	case flagutils.ConditionGone:
		ok = res.WaitUntilGone(ctx, r.waitOptions)
	case flagutils.ConditionStatus:
		ok = res.WaitForStatus(ctx, cond.Value, r.waitOptions)
	case flagutils.ConditionField:
		fw, isFieldWaiter := res.(fieldWaiter)
		if !isFieldWaiter {
			return fmt.Errorf("%s does not support field conditions", res.Identity())
		}
		ok = fw.WaitForField(ctx, cond.Path, cond.Value, r.waitOptions)
	}
	if !ok {
		return &resource.TimeoutError{
			Identity:  res.Identity(),
			Condition: cond.String(),
			Timeout:   timeout(res, r.waitOptions),
		}
	}
	fmt.Fprintf(r.ioStreams.Out, "%s: condition %s met\n", res.Identity(), cond)
	return nil
}

// timeout returns the wait bound in effect for res.
func timeout(res resource.Resource, opts resource.WaitOptions) time.Duration {
	if wr, ok := res.(waitResolver); ok {
		return wr.ResolveWaitOptions(opts).TimeoutOr(resource.DefaultTimeout)
	}
	return opts.TimeoutOr(resource.DefaultTimeout)
}
