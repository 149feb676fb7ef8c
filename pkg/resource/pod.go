// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"

	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Pod is a handle for a v1 Pod.
type Pod struct {
	*Handle
}

func NewPod(b backend.Backend, namespace, name string, opts ...Option) *Pod {
	return &Pod{Handle: New(b, object.ResourceIdentity{
		Kind:       object.KindPod,
		APIVersion: object.APIVersionV1,
		Namespace:  namespace,
		Name:       name,
	}, opts...)}
}

// ListPods returns a handle for every pod in namespace matching the
// label selector. An empty namespace lists pods in all namespaces.
func ListPods(ctx context.Context, b backend.Backend, namespace, labelSelector string, opts ...Option) ([]*Pod, error) {
	docs, err := b.List(ctx, object.APIVersionV1, object.KindPod, backend.ListOptions{
		Namespace:     namespace,
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, err
	}
	pods := make([]*Pod, 0, len(docs))
	for i := range docs {
		pods = append(pods, NewPod(b, docs[i].GetNamespace(), docs[i].GetName(), opts...))
	}
	return pods, nil
}

// Containers returns the names of the pod containers.
func (p *Pod) Containers(ctx context.Context) ([]string, error) {
	containers, err := p.nestedSlice(ctx, "spec", "containers")
	if err != nil {
		return nil, err
	}
	return stringEntries(containers, "name")
}

// NodeName returns the node the pod is scheduled on.
func (p *Pod) NodeName(ctx context.Context) (string, error) {
	return p.stringField(ctx, "spec", "nodeName")
}

// WaitForRunning blocks until the pod phase is Running.
func (p *Pod) WaitForRunning(ctx context.Context, opts WaitOptions) bool {
	return p.WaitForStatus(ctx, object.PhaseRunning, opts)
}

// Exec runs command inside the pod and returns whether it succeeded
// together with its output. An empty container selects the pod default
// container.
func (p *Pod) Exec(command, container string) (bool, string) {
	args := []string{"exec", "-i", p.id.Name}
	if p.id.Namespace != "" {
		args = append(args, "-n", p.id.Namespace)
	}
	if container != "" {
		args = append(args, "-c", container)
	}
	args = append(args, "--", command)
	return p.run(exec.Command(p.kubectl, args...))
}
