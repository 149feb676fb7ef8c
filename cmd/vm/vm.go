// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package vm holds the virtual machine commands of vharness.
package vm

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/printers"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/flagutils"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

// Command returns the `vm` command group.
func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	c := &cobra.Command{
		Use:   "vm",
		Short: i18n.T("Operate virtual machines"),
	}
	c.AddCommand(
		newControlRunner(f, ioStreams, "start", true).Command,
		newControlRunner(f, ioStreams, "stop", false).Command,
		newInterfacesRunner(f, ioStreams).Command,
		newNodeRunner(f, ioStreams).Command,
	)
	return c
}

type runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	wait        bool
	waitOptions resource.WaitOptions
}

func (r *runner) virtualMachine(cmd *cobra.Command, name string) (*resource.VirtualMachine, error) {
	ns, err := r.factory.Namespace()
	if err != nil {
		return nil, err
	}
	s, err := r.factory.Session(common.Context(cmd))
	if err != nil {
		return nil, err
	}
	return s.VirtualMachine(ns, name), nil
}

// ControlRunner starts or stops a virtual machine.
type ControlRunner struct {
	runner
	running bool
}

func newControlRunner(f common.Factory, ioStreams genericclioptions.IOStreams, verb string, running bool) *ControlRunner {
	r := &ControlRunner{runner: runner{factory: f, ioStreams: ioStreams}, running: running}
	c := &cobra.Command{
		Use:                   verb + " NAME",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T(fmt.Sprintf("Run virtctl %s for a virtual machine", verb)),
		Args:                  cobra.ExactArgs(1),
		Run:                   common.RunFunc(r.RunE),
	}
	c.Flags().BoolVar(&r.wait, flagutils.WaitFlag, false,
		"Wait until spec.running reflects the request.")
	flagutils.AddWaitFlags(c, &r.waitOptions)
	r.Command = c
	return r
}

func (r *ControlRunner) RunE(cmd *cobra.Command, args []string) error {
	vm, err := r.virtualMachine(cmd, args[0])
	if err != nil {
		return err
	}
	opts := resource.StartStopOptions{Wait: r.wait, WaitOptions: r.waitOptions}
	ctx := common.Context(cmd)
	if r.running {
		err = vm.Start(ctx, opts)
	} else {
		err = vm.Stop(ctx, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.ioStreams.Out, "%s running=%t\n", vm.Identity(), r.running)
	return nil
}

// InterfacesRunner prints the network interfaces of a virtual machine.
type InterfacesRunner struct {
	runner
}

func newInterfacesRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *InterfacesRunner {
	r := &InterfacesRunner{runner: runner{factory: f, ioStreams: ioStreams}}
	c := &cobra.Command{
		Use:                   "interfaces NAME",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("Print the network interfaces of a virtual machine instance"),
		Args:                  cobra.ExactArgs(1),
		Run:                   common.RunFunc(r.RunE),
	}
	c.Flags().BoolVar(&r.wait, flagutils.WaitFlag, false,
		"Wait until every interface reports a name and an address.")
	flagutils.AddWaitFlags(c, &r.waitOptions)
	r.Command = c
	return r
}

func (r *InterfacesRunner) RunE(cmd *cobra.Command, args []string) error {
	vm, err := r.virtualMachine(cmd, args[0])
	if err != nil {
		return err
	}
	ctx := common.Context(cmd)
	var ifaces []resource.Interface
	if r.wait {
		var ok bool
		ifaces, ok = vm.Instance().WaitForInterfaces(ctx, r.waitOptions)
		if !ok {
			return &resource.TimeoutError{
				Identity:  vm.Instance().Identity(),
				Condition: "reporting interfaces",
				Timeout:   vm.ResolveWaitOptions(r.waitOptions).TimeoutOr(resource.DefaultTimeout),
			}
		}
	} else if ifaces, err = vm.Interfaces(ctx); err != nil {
		return err
	}

	tw := printers.GetNewTabWriter(r.ioStreams.Out)
	fmt.Fprintln(tw, "NAME\tINTERFACE\tIP\tMAC")
	for _, i := range ifaces {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i.Name, i.InterfaceName, i.IP(), i.MAC)
	}
	return tw.Flush()
}

// NodeRunner prints the node a virtual machine runs on.
type NodeRunner struct {
	runner
}

func newNodeRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *NodeRunner {
	r := &NodeRunner{runner: runner{factory: f, ioStreams: ioStreams}}
	c := &cobra.Command{
		Use:                   "node NAME",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("Print the node a virtual machine runs on"),
		Args:                  cobra.ExactArgs(1),
		Run:                   common.RunFunc(r.RunE),
	}
	r.Command = c
	return r
}

func (r *NodeRunner) RunE(cmd *cobra.Command, args []string) error {
	vm, err := r.virtualMachine(cmd, args[0])
	if err != nil {
		return err
	}
	node, err := vm.NodeName(common.Context(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintln(r.ioStreams.Out, node)
	return nil
}
