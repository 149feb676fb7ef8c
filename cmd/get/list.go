// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package get

import (
	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/printers"
	"sigs.k8s.io/virt-harness/pkg/backend"
)

func ListRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *ListCommandRunner {
	r := &ListCommandRunner{
		factory:   f,
		ioStreams: ioStreams,
	}
	c := &cobra.Command{
		Use:                   "list KIND",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("List resources of a kind"),
		Args:                  cobra.ExactArgs(1),
		Run:                   common.RunFunc(r.RunE),
	}
	c.Flags().StringVarP(&r.output, "output", "o", printers.DefaultPrinter(),
		"Output format. One of table, yaml, json, name.")
	c.Flags().StringVar(&r.apiVersion, "api-version", "",
		"API version of KIND. Required for kinds the harness does not know.")
	c.Flags().StringVarP(&r.selector, "selector", "l", "",
		"Label selector to filter on.")
	c.Flags().BoolVarP(&r.allNamespaces, "all-namespaces", "A", false,
		"List across all namespaces.")
	c.Flags().BoolVar(&r.namesOnly, "names-only", false,
		"Print only the names, one per line.")
	r.Command = c
	return r
}

func ListCommand(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return ListRunner(f, ioStreams).Command
}

// ListCommandRunner captures the parameters of the list command.
type ListCommandRunner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	output        string
	apiVersion    string
	selector      string
	allNamespaces bool
	namesOnly     bool
}

func (r *ListCommandRunner) RunE(cmd *cobra.Command, args []string) error {
	if err := printers.ValidatePrinter(r.output); err != nil {
		return err
	}
	ctx := common.Context(cmd)
	k, err := common.ResolveKind(args[0], r.apiVersion)
	if err != nil {
		return err
	}
	var ns string
	if !r.allNamespaces {
		if ns, err = r.factory.Namespace(); err != nil {
			return err
		}
	}
	s, err := r.factory.Session(ctx)
	if err != nil {
		return err
	}
	res, err := common.Resource(s, k, ns, "")
	if err != nil {
		return err
	}
	opts := backend.ListOptions{Namespace: ns, LabelSelector: r.selector}
	docs, err := res.List(ctx, opts)
	if err != nil {
		return err
	}
	if r.namesOnly {
		return printers.PrintNames(r.ioStreams.Out, backend.NamesOnly(docs))
	}
	return printers.Print(r.ioStreams.Out, r.output, docs)
}
