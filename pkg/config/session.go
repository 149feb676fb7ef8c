// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/flowcontrol"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

// Session is the shared connection of a test run. Its backend is safe
// for sequential reuse by any number of handles.
type Session struct {
	Config     *Config
	RESTConfig *rest.Config
	Mapper     meta.RESTMapper
	Backend    backend.Backend
	Runner     exec.Runner
	Clock      clock.Clock
}

// NewSession connects to the cluster named by the configuration. A
// missing kubeconfig or an unreachable API server is reported as a
// *backend.UnavailableError.
func NewSession(ctx context.Context, cfg *Config) (*Session, error) {
	if err := cfg.CheckKubeconfig(); err != nil {
		return nil, err
	}
	flags := genericclioptions.NewConfigFlags(false)
	if cfg.Kubeconfig != "" {
		flags.KubeConfig = &cfg.Kubeconfig
	}
	if cfg.Context != "" {
		flags.Context = &cfg.Context
	}
	return NewSessionFromGetter(ctx, cfg, flags)
}

// NewSessionFromGetter connects through a REST client getter, e.g. the
// kube config flags of a command line.
func NewSessionFromGetter(ctx context.Context, cfg *Config, getter genericclioptions.RESTClientGetter) (*Session, error) {
	restConfig, err := getter.ToRESTConfig()
	if err != nil {
		return nil, &backend.UnavailableError{Reason: "unable to load cluster credentials", Err: err}
	}
	return NewSessionFromRESTConfig(ctx, cfg, restConfig)
}

// NewSessionFromRESTConfig connects with an already loaded REST config.
func NewSessionFromRESTConfig(ctx context.Context, cfg *Config, restConfig *rest.Config) (*Session, error) {
	dc, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, &backend.UnavailableError{Reason: "unable to create discovery client", Err: err}
	}
	version, err := dc.ServerVersion()
	if err != nil {
		return nil, &backend.UnavailableError{Reason: fmt.Sprintf("API server %s is not reachable", restConfig.Host), Err: err}
	}
	klog.V(2).Infof("connected to %s (server %s)", restConfig.Host, version.GitVersion)
	flowcontrol.DisableClientThrottling(ctx, restConfig)

	mapper, err := apiutil.NewDynamicRESTMapper(restConfig)
	if err != nil {
		return nil, &backend.UnavailableError{Reason: "unable to discover API resources", Err: err}
	}
	client, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create dynamic client: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s := NewSessionFromBackend(cfg, backend.NewDynamicBackend(client, mapper), exec.NewShellRunner())
	s.RESTConfig = restConfig
	s.Mapper = mapper
	return s, nil
}

// NewSessionFromBackend returns a session over an existing backend,
// without connecting anywhere.
func NewSessionFromBackend(cfg *Config, b backend.Backend, runner exec.Runner) *Session {
	if cfg == nil {
		cfg = Default()
	}
	return &Session{
		Config:  cfg,
		Backend: b,
		Runner:  runner,
		Clock:   clock.RealClock{},
	}
}

// HandleOptions returns the options every handle of the session is
// built with.
func (s *Session) HandleOptions() []resource.Option {
	return []resource.Option{
		resource.WithClock(s.Clock),
		resource.WithRunner(s.Runner),
		resource.WithKubectl(s.Config.KubectlBinary),
		resource.WithVirtctl(s.Config.VirtctlBinary),
		resource.WithDefaultWait(resource.Within(
			durationOrDefault(s.Config.DefaultTimeout.Duration, resource.DefaultTimeout),
			durationOrDefault(s.Config.DefaultInterval.Duration, resource.DefaultInterval),
		)),
	}
}

// Handle returns a generic handle for any kind.
func (s *Session) Handle(apiVersion, kind, namespace, name string) (*resource.Handle, error) {
	return resource.NewHandle(s.Backend, apiVersion, kind, namespace, name, s.HandleOptions()...)
}

func (s *Session) Namespace(name string) *resource.Namespace {
	return resource.NewNamespace(s.Backend, name, s.HandleOptions()...)
}

func (s *Session) Node(name string) *resource.Node {
	return resource.NewNode(s.Backend, name, s.HandleOptions()...)
}

func (s *Session) Pod(namespace, name string) *resource.Pod {
	return resource.NewPod(s.Backend, namespace, name, s.HandleOptions()...)
}

func (s *Session) VirtualMachine(namespace, name string) *resource.VirtualMachine {
	return resource.NewVirtualMachine(s.Backend, namespace, name, s.HandleOptions()...)
}

func (s *Session) VirtualMachineInstance(namespace, name string) *resource.VirtualMachineInstance {
	return resource.NewVirtualMachineInstance(s.Backend, namespace, name, s.HandleOptions()...)
}

// Nodes returns the nodes matching the configured node selector.
func (s *Session) Nodes(ctx context.Context) ([]*resource.Node, error) {
	return resource.ListNodes(ctx, s.Backend, s.Config.NodeSelector, s.HandleOptions()...)
}

// Serves reports whether the cluster serves the kind, e.g. whether
// KubeVirt is installed. Sessions without a mapper serve nothing.
func (s *Session) Serves(apiVersion, kind string) bool {
	if s.Mapper == nil {
		return false
	}
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return false
	}
	_, err = s.Mapper.RESTMapping(gv.WithKind(kind).GroupKind(), gv.Version)
	return err == nil
}
