// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"

	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Namespace is a handle for a cluster scoped v1 Namespace.
type Namespace struct {
	*Handle
}

func NewNamespace(b backend.Backend, name string, opts ...Option) *Namespace {
	return &Namespace{Handle: New(b, object.ResourceIdentity{
		Kind:       object.KindNamespace,
		APIVersion: object.APIVersionV1,
		Name:       name,
	}, opts...)}
}

// WaitForActive blocks until the namespace phase is Active.
func (n *Namespace) WaitForActive(ctx context.Context, opts WaitOptions) bool {
	return n.WaitForStatus(ctx, object.PhaseActive, opts)
}

// SwitchContext makes this namespace the default of the current
// kubeconfig context, so that later commands run without -n.
func (n *Namespace) SwitchContext() error {
	command := exec.Command(n.kubectl, "config", "set-context", "--current", "--namespace="+n.id.Name)
	ok, out := n.run(command)
	if !ok {
		return &CommandError{Identity: n.id, Command: command, Output: out}
	}
	klog.V(2).Infof("switched current context to namespace %s", n.id.Name)
	return nil
}

// CreateAndSwitch creates the namespace, waits for it to become Active
// and switches the current context to it.
func (n *Namespace) CreateAndSwitch(ctx context.Context, opts WaitOptions) error {
	if err := n.Create(ctx, nil, CreateOptions{}); err != nil {
		return err
	}
	if !n.WaitForActive(ctx, opts) {
		return &TimeoutError{Identity: n.id, Condition: object.PhaseActive, Timeout: n.resolve(opts).Timeout}
	}
	return n.SwitchContext()
}
