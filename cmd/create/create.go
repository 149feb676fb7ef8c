// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package create

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
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
		Use:                   "create -f FILENAME",
		DisableFlagsInUseLine: true,
		Short:                 i18n.T("Create resources from manifests or manifest templates"),
		Args:                  cobra.NoArgs,
		Run:                   common.RunFunc(r.RunE),
	}
	c.Flags().StringVarP(&r.filename, "filename", "f", "",
		"File or directory of manifests to create. Use - for stdin.")
	c.Flags().StringToStringVar(&r.values, "set", nil,
		"Render the file as a template with these values, e.g. --set name=vm-a.")
	c.Flags().BoolVar(&r.wait, flagutils.WaitFlag, false,
		"Wait until every created resource exists.")
	flagutils.AddWaitFlags(c, &r.waitOptions)
	_ = c.MarkFlagRequired("filename")
	r.Command = c
	return r
}

func Command(f common.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	return GetRunner(f, ioStreams).Command
}

// Runner captures the parameters of the create command.
type Runner struct {
	Command   *cobra.Command
	factory   common.Factory
	ioStreams genericclioptions.IOStreams

	filename    string
	values      map[string]string
	wait        bool
	waitOptions resource.WaitOptions
}

func (r *Runner) RunE(cmd *cobra.Command, _ []string) error {
	ctx := common.Context(cmd)
	ns, err := r.factory.Namespace()
	if err != nil {
		return err
	}
	s, err := r.factory.Session(ctx)
	if err != nil {
		return err
	}
	docs, err := r.reader(cmd, s, ns).Read()
	if err != nil {
		return err
	}
	opts := resource.CreateOptions{Wait: r.wait, WaitOptions: r.waitOptions}
	for _, doc := range docs {
		id, err := object.IdentityFromUnstructured(doc)
		if err != nil {
			return err
		}
		if id.Namespace == "" && s.Mapper == nil {
			id.Namespace = ns
		}
		res, err := s.Handle(id.APIVersion, id.Kind, id.Namespace, id.Name)
		if err != nil {
			return err
		}
		if err := res.Create(ctx, doc, opts); err != nil {
			return err
		}
		fmt.Fprintf(r.ioStreams.Out, "%s created\n", id)
	}
	return nil
}

func (r *Runner) reader(cmd *cobra.Command, s *config.Session, ns string) manifest.Reader {
	opts := manifest.ReaderOptions{Mapper: s.Mapper, Namespace: ns}
	if s.Mapper == nil {
		opts.Namespace = ""
	}
	if r.filename == "-" {
		return &manifest.StreamReader{ReaderName: "stdin", Reader: cmd.InOrStdin(), ReaderOptions: opts}
	}
	if len(r.values) > 0 {
		return &templateFileReader{path: r.filename, data: r.values, opts: opts}
	}
	return &manifest.PathReader{Path: r.filename, ReaderOptions: opts}
}

// templateFileReader reads the template lazily so that a missing file
// surfaces as a read error.
type templateFileReader struct {
	path string
	data map[string]string
	opts manifest.ReaderOptions
}

func (t *templateFileReader) Read() ([]*unstructured.Unstructured, error) {
	b, err := os.ReadFile(t.path)
	if err != nil {
		return nil, err
	}
	return (&manifest.TemplateReader{
		Name:          t.path,
		Template:      string(b),
		Data:          t.data,
		ReaderOptions: t.opts,
	}).Read()
}
