// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package get

import (
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/printers"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/object"
)

func GetRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *Runner {
	r := &Runner{
		factory:   f,
		ioStreams: ioStreams,
	}
	c := &cobra.Command{
		Use:                   "get KIND NAME",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("Print one resource"),
		Args:                  cobra.ExactArgs(2),
		Run:                   common.RunFunc(r.RunE),
	}
	c.Flags().StringVarP(&r.output, "output", "o", printers.YAMLPrinter,
		"Output format. One of table, yaml, json, name.")
	c.Flags().StringVar(&r.apiVersion, "api-version", "",
		"API version of KIND. Required for kinds the harness does not know.")
	r.Command = c
	return r
}

func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return GetRunner(f, ioStreams).Command
}

// Runner captures the parameters of the get command.
type Runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	output     string
	apiVersion string
}

func (r *Runner) RunE(cmd *cobra.Command, args []string) error {
	if err := printers.ValidatePrinter(r.output); err != nil {
		return err
	}
	ctx := common.Context(cmd)
	res, err := common.ResourceFor(ctx, r.factory, args[0], r.apiVersion, args[1])
	if err != nil {
		return err
	}
	doc, err := res.Get(ctx)
	if err != nil {
		return err
	}
	if object.IsEmpty(doc) {
		return &backend.NotFoundError{Identity: res.Identity()}
	}
	return printers.Print(r.ioStreams.Out, r.output, []unstructured.Unstructured{*doc})
}
