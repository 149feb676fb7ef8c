// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package factory memoizes the cluster connection settings resolved from
// command line flags.
package factory

import (
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// CachingRESTClientGetter caches the REST config and the RESTMapper so
// every command of a process sees the same connection settings.
type CachingRESTClientGetter struct {
	mx       sync.Mutex
	Delegate genericclioptions.RESTClientGetter

	config *rest.Config
	mapper meta.RESTMapper
}

var _ genericclioptions.RESTClientGetter = &CachingRESTClientGetter{}

func (c *CachingRESTClientGetter) ToRESTConfig() (*rest.Config, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.config != nil {
		return rest.CopyConfig(c.config), nil
	}
	cfg, err := c.Delegate.ToRESTConfig()
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return rest.CopyConfig(cfg), nil
}

func (c *CachingRESTClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	return c.Delegate.ToDiscoveryClient()
}

func (c *CachingRESTClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.mapper != nil {
		return c.mapper, nil
	}
	var err error
	c.mapper, err = c.Delegate.ToRESTMapper()
	return c.mapper, err
}

func (c *CachingRESTClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return c.Delegate.ToRawKubeConfigLoader()
}

// Namespace returns the namespace selected by the flags or the current
// kubeconfig context, falling back to "default".
func (c *CachingRESTClientGetter) Namespace() (string, error) {
	ns, _, err := c.ToRawKubeConfigLoader().Namespace()
	if err != nil {
		return "", err
	}
	if ns == "" {
		ns = "default"
	}
	return ns, nil
}
