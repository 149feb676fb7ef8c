// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package testenv holds the state fixtures share during a test run.
// An Env is created once per suite and handed to every fixture that
// needs it; nothing here is package level.
package testenv

import (
	"context"
	"fmt"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

// NICsCommand lists the physical network interfaces of a node when run
// in a privileged host network pod.
const NICsCommand = `bash -c "ls -l /sys/class/net/ | grep -v virtual | grep net | rev | cut -d / -f 1 | rev"`

// BondMinNICs is the number of NICs above which a node can spare two
// for a bond.
const BondMinNICs = 3

// CleanupFunc undoes one step of environment preparation.
type CleanupFunc func(ctx context.Context) error

type cleanup struct {
	name string
	fn   CleanupFunc
}

// Env is the environment context of a test suite.
type Env struct {
	Session   *config.Session
	Namespace *resource.Namespace

	// Nodes maps node names to their InternalIP.
	Nodes map[string]string
	// NICs maps node names to their physical interfaces.
	NICs map[string][]string
	// BondSupported is true when every probed node has spare NICs.
	BondSupported bool
	// Bridges lists the bridges created on the nodes.
	Bridges []string

	cleanups []cleanup
}

func New(s *config.Session) *Env {
	return &Env{
		Session: s,
		Nodes:   map[string]string{},
		NICs:    map[string][]string{},
	}
}

// AddCleanup registers fn to run during Teardown. Cleanups run in the
// reverse order of registration.
func (e *Env) AddCleanup(name string, fn CleanupFunc) {
	e.cleanups = append(e.cleanups, cleanup{name: name, fn: fn})
}

// Teardown runs every registered cleanup, continuing past failures, and
// returns the aggregated errors.
func (e *Env) Teardown(ctx context.Context) error {
	var errs []error
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		c := e.cleanups[i]
		klog.V(2).Infof("cleanup: %s", c.name)
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cleanup %s: %w", c.name, err))
		}
	}
	e.cleanups = nil
	return utilerrors.NewAggregate(errs)
}

// PrepareNamespace creates the namespace, waits for it to become Active
// and makes it the current context namespace. Teardown deletes it.
func (e *Env) PrepareNamespace(ctx context.Context, name string) (*resource.Namespace, error) {
	ns := e.Session.Namespace(name)
	if err := ns.CreateAndSwitch(ctx, resource.WaitOptions{}); err != nil {
		return nil, err
	}
	e.Namespace = ns
	e.AddCleanup("namespace "+name, func(ctx context.Context) error {
		return ns.Delete(ctx, resource.DeleteOptions{Wait: true})
	})
	return ns, nil
}

// DiscoverNodes records the InternalIP of every node matching the label
// selector. An empty selector uses the configured node selector.
func (e *Env) DiscoverNodes(ctx context.Context, labelSelector string) (map[string]string, error) {
	if labelSelector == "" {
		labelSelector = e.Session.Config.NodeSelector
	}
	nodes, err := resource.ListNodes(ctx, e.Session.Backend, labelSelector, e.Session.HandleOptions()...)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		ip, err := n.InternalIP(ctx)
		if err != nil {
			return nil, err
		}
		e.Nodes[n.Name()] = ip
	}
	return e.Nodes, nil
}

// DetectBondSupport lists the physical NICs of the node of every pod.
// The pods must run privileged on the host network. Bonding is
// supported when every node has more than BondMinNICs NICs.
func (e *Env) DetectBondSupport(ctx context.Context, pods []*resource.Pod) (bool, error) {
	if len(pods) == 0 {
		return false, fmt.Errorf("no pods to probe NICs with")
	}
	supported := true
	for _, p := range pods {
		if !p.WaitForRunning(ctx, resource.WaitOptions{}) {
			return false, &resource.TimeoutError{Identity: p.Identity(), Condition: "Running", Timeout: e.Session.Config.DefaultTimeout.Duration}
		}
		nics, err := e.PodNICs(ctx, p)
		if err != nil {
			return false, err
		}
		if len(nics) <= BondMinNICs {
			supported = false
		}
	}
	e.BondSupported = supported
	klog.V(2).Infof("bond supported: %t", supported)
	return supported, nil
}

// PodNICs runs NICsCommand in the first container of the pod and
// records the result for the pod node.
func (e *Env) PodNICs(ctx context.Context, p *resource.Pod) ([]string, error) {
	containers, err := p.Containers(ctx)
	if err != nil {
		return nil, err
	}
	if len(containers) == 0 {
		return nil, fmt.Errorf("%s has no containers", p.Identity())
	}
	node, err := p.NodeName(ctx)
	if err != nil {
		return nil, err
	}
	ok, out := p.Exec(NICsCommand, containers[0])
	if !ok {
		return nil, &resource.CommandError{Identity: p.Identity(), Command: NICsCommand, Output: out}
	}
	var nics []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			nics = append(nics, line)
		}
	}
	e.NICs[node] = nics
	return nics, nil
}

// RecordBridge remembers a bridge created on the nodes. If cleanup is
// not nil it runs during Teardown.
func (e *Env) RecordBridge(name string, cleanup CleanupFunc) {
	e.Bridges = append(e.Bridges, name)
	if cleanup != nil {
		e.AddCleanup("bridge "+name, cleanup)
	}
}
