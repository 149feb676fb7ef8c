// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package initcmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/pkg/config"
)

// InitOptions contains the fields necessary to generate a harness
// configuration file.
type InitOptions struct {
	ioStreams genericclioptions.IOStreams

	Path            string
	Kubeconfig      string
	Suites          []string
	NamespacePrefix string
	Overwrite       bool
}

func NewInitOptions(ioStreams genericclioptions.IOStreams) *InitOptions {
	return &InitOptions{
		ioStreams:       ioStreams,
		NamespacePrefix: "virt-",
	}
}

// Complete fills in the path from the command arguments.
func (i *InitOptions) Complete(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("need one 'file' argument; have %d", len(args))
	}
	i.Path = args[0]
	return nil
}

// Run writes a configuration with the defaults and a random namespace
// for each suite.
func (i *InitOptions) Run() error {
	cfg := config.Default()
	cfg.Kubeconfig = i.Kubeconfig
	for _, suite := range i.Suites {
		ns, err := config.RandomNamespace(i.NamespacePrefix + suite + "-")
		if err != nil {
			return err
		}
		cfg.Namespaces[suite] = ns
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(i.Path, i.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(i.ioStreams.Out, "initialized: %s\n", i.Path)
	return nil
}

// NewCmdInit creates the `init` command, which generates a harness
// configuration file.
func NewCmdInit(ioStreams genericclioptions.IOStreams) *cobra.Command {
	io := NewInitOptions(ioStreams)
	cmd := &cobra.Command{
		Use:                   "init FILE",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("Create a harness configuration file"),
		Run: common.RunFunc(func(cmd *cobra.Command, args []string) error {
			if err := io.Complete(args); err != nil {
				return err
			}
			return io.Run()
		}),
	}
	cmd.Flags().StringVar(&io.Kubeconfig, "kubeconfig-path", "", "Path of the cluster credentials to record.")
	cmd.Flags().StringSliceVar(&io.Suites, "suite", nil, "Test suite to allocate a random namespace for. May be repeated.")
	cmd.Flags().StringVar(&io.NamespacePrefix, "namespace-prefix", io.NamespacePrefix, "Prefix of the generated namespace names.")
	cmd.Flags().BoolVar(&io.Overwrite, "force", false, "Overwrite an existing file.")
	return cmd
}
