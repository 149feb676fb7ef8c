// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/component-base/cli"
	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/create"
	"sigs.k8s.io/virt-harness/cmd/delete"
	"sigs.k8s.io/virt-harness/cmd/exec"
	"sigs.k8s.io/virt-harness/cmd/get"
	"sigs.k8s.io/virt-harness/cmd/initcmd"
	"sigs.k8s.io/virt-harness/cmd/vm"
	"sigs.k8s.io/virt-harness/cmd/wait"

	// This is here rather than in the libraries because of
	// https://github.com/kubernetes-sigs/kustomize/issues/2060
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

func main() {
	ioStreams := genericclioptions.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
	code := cli.Run(NewCommand(ioStreams))
	os.Exit(code)
}

// NewCommand returns the vharness root command with every subcommand.
func NewCommand(ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   common.CommandName,
		Short: "Drive KubeVirt resources from integration tests",
		Long: `Drive KubeVirt resources from integration tests.

vharness exposes the resource handles of the harness on the command line:
list, create and delete resources, wait for them to reach a condition, and
start or stop virtual machines.`,
		// We silence error reporting from Cobra here since we want to improve
		// the error messages coming from the commands.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// configure kubectl dependencies and flags
	flags := cmd.PersistentFlags()
	kubeConfigFlags := genericclioptions.NewConfigFlags(true)
	kubeConfigFlags.AddFlags(flags)
	var configPath string
	flags.StringVar(&configPath, "harness-config", "",
		"Path of the harness configuration file.")
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)
	f := common.NewFactory(kubeConfigFlags, &configPath)

	cmd.AddCommand(
		initcmd.NewCmdInit(ioStreams),
		get.Command(f, ioStreams),
		get.ListCommand(f, ioStreams),
		create.Command(f, ioStreams),
		delete.Command(f, ioStreams),
		wait.Command(f, ioStreams),
		exec.Command(f, ioStreams),
		vm.Command(f, ioStreams),
	)
	return cmd
}
