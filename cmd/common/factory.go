// Copyright 2019 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package common holds what the vharness commands share: the lazily
// connected session and the namespace selected on the command line.
package common

import (
	"context"
	"sync"

	"k8s.io/cli-runtime/pkg/genericclioptions"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/util/factory"
)

// Factory hands out the session and the default namespace of a command.
type Factory interface {
	Session(ctx context.Context) (*config.Session, error)
	Namespace() (string, error)
}

// NewFactory returns a Factory that connects through the kube config
// flags, on top of the harness configuration file at *configPath (if
// any). The connection is made once, on first use.
func NewFactory(flags *genericclioptions.ConfigFlags, configPath *string) *ClusterFactory {
	return &ClusterFactory{
		getter:     &factory.CachingRESTClientGetter{Delegate: flags},
		flags:      flags,
		configPath: configPath,
	}
}

// ClusterFactory connects to the cluster selected by the command line.
type ClusterFactory struct {
	getter     *factory.CachingRESTClientGetter
	flags      *genericclioptions.ConfigFlags
	configPath *string

	once    sync.Once
	session *config.Session
	err     error
}

var _ Factory = &ClusterFactory{}

func (f *ClusterFactory) Session(ctx context.Context) (*config.Session, error) {
	f.once.Do(func() {
		cfg, err := f.config()
		if err != nil {
			f.err = err
			return
		}
		if err := cfg.CheckKubeconfig(); err != nil {
			f.err = err
			return
		}
		f.session, f.err = config.NewSessionFromGetter(ctx, cfg, f.getter)
	})
	return f.session, f.err
}

func (f *ClusterFactory) Namespace() (string, error) {
	return f.getter.Namespace()
}

// config loads the harness configuration. Kube flags given on the
// command line take precedence over the file.
func (f *ClusterFactory) config() (*config.Config, error) {
	var path string
	if f.configPath != nil {
		path = *f.configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.flags.KubeConfig != nil && *f.flags.KubeConfig != "" {
		cfg.Kubeconfig = *f.flags.KubeConfig
	} else if cfg.Kubeconfig != "" {
		f.flags.KubeConfig = &cfg.Kubeconfig
	}
	if f.flags.Context != nil && *f.flags.Context != "" {
		cfg.Context = *f.flags.Context
	} else if cfg.Context != "" {
		f.flags.Context = &cfg.Context
	}
	return cfg, nil
}

// StaticFactory returns a fixed session and namespace.
type StaticFactory struct {
	S  *config.Session
	NS string
}

var _ Factory = StaticFactory{}

func (f StaticFactory) Session(context.Context) (*config.Session, error) {
	return f.S, nil
}

func (f StaticFactory) Namespace() (string, error) {
	if f.NS == "" {
		return "default", nil
	}
	return f.NS, nil
}
