// Copyright 2019 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package delete

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/kubectl/pkg/util/i18n"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/cmd/flagutils"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/manifest"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

func GetRunner(f common.Factory, ioStreams genericclioptions.IOStreams) *Runner {
	r := &Runner{
		factory:   f,
		ioStreams: ioStreams,
	}
	c := &cobra.Command{
		Use:   "delete (KIND NAME... | -f FILENAME)",
		Short: i18n.T("Delete resources by name or by manifest"),
		Long: `Delete resources by name or by manifest.

Deleting a resource that does not exist succeeds.

	# Delete two virtual machines and wait until both are gone
	vharness delete vm vm-a vm-b --wait

	# Delete everything a manifest describes
	vharness delete -f manifests/
`,
		Run: common.RunFunc(r.RunE),
	}
	c.Flags().StringVarP(&r.filename, "filename", "f", "",
		"File or directory of manifests whose resources to delete.")
	c.Flags().StringVar(&r.apiVersion, "api-version", "",
		"API version of KIND. Required for kinds the harness does not know.")
	c.Flags().BoolVar(&r.wait, flagutils.WaitFlag, false,
		"Wait until every deleted resource is gone.")
	flagutils.AddWaitFlags(c, &r.waitOptions)
	r.Command = c
	return r
}

func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return GetRunner(f, ioStreams).Command
}

// Runner captures the parameters of the delete command.
type Runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	filename    string
	apiVersion  string
	wait        bool
	waitOptions resource.WaitOptions
}

func (r *Runner) RunE(cmd *cobra.Command, args []string) error {
	ctx := common.Context(cmd)
	ns, err := r.factory.Namespace()
	if err != nil {
		return err
	}
	s, err := r.factory.Session(ctx)
	if err != nil {
		return err
	}
	targets, err := r.targets(s, ns, args)
	if err != nil {
		return err
	}
	opts := resource.DeleteOptions{Wait: r.wait, WaitOptions: r.waitOptions}
	for _, res := range targets {
		if err := res.Delete(ctx, opts); err != nil {
			return err
		}
		fmt.Fprintf(r.ioStreams.Out, "%s deleted\n", res.Identity())
	}
	return nil
}

func (r *Runner) targets(s *config.Session, ns string, args []string) ([]resource.Resource, error) {
	if r.filename != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either KIND NAME... or --filename, not both")
		}
		return r.manifestTargets(s, ns)
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("expected KIND and at least one NAME, got %v", args)
	}
	k, err := common.ResolveKind(args[0], r.apiVersion)
	if err != nil {
		return nil, err
	}
	var targets []resource.Resource
	for _, name := range args[1:] {
		res, err := common.Resource(s, k, ns, name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, res)
	}
	return targets, nil
}

// manifestTargets returns the resources a manifest describes, in
// reverse order so that dependents go before what they depend on.
func (r *Runner) manifestTargets(s *config.Session, ns string) ([]resource.Resource, error) {
	opts := manifest.ReaderOptions{Mapper: s.Mapper, Namespace: ns}
	if s.Mapper == nil {
		opts.Namespace = ""
	}
	docs, err := (&manifest.PathReader{Path: r.filename, ReaderOptions: opts}).Read()
	if err != nil {
		return nil, err
	}
	var targets []resource.Resource
	for i := len(docs) - 1; i >= 0; i-- {
		id, err := object.IdentityFromUnstructured(docs[i])
		if err != nil {
			return nil, err
		}
		if id.Namespace == "" && s.Mapper == nil {
			id.Namespace = ns
		}
		res, err := s.Handle(id.APIVersion, id.Kind, id.Namespace, id.Name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, res)
	}
	return targets, nil
}
