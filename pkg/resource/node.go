// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"

	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Node is a handle for a cluster scoped v1 Node.
type Node struct {
	*Handle
}

func NewNode(b backend.Backend, name string, opts ...Option) *Node {
	return &Node{Handle: New(b, object.ResourceIdentity{
		Kind:       object.KindNode,
		APIVersion: object.APIVersionV1,
		Name:       name,
	}, opts...)}
}

// ListNodes returns a handle for every node matching the label selector.
func ListNodes(ctx context.Context, b backend.Backend, labelSelector string, opts ...Option) ([]*Node, error) {
	names, err := backend.ListNames(ctx, b, object.APIVersionV1, object.KindNode, backend.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, NewNode(b, name, opts...))
	}
	return nodes, nil
}

// InternalIP returns the InternalIP address the node reports.
func (n *Node) InternalIP(ctx context.Context) (string, error) {
	addresses, err := n.nestedSlice(ctx, "status", "addresses")
	if err != nil {
		return "", err
	}
	for _, a := range addresses {
		m, ok := a.(map[string]interface{})
		if !ok {
			continue
		}
		if m["type"] == "InternalIP" {
			if addr, ok := m["address"].(string); ok && addr != "" {
				return addr, nil
			}
		}
	}
	return "", &object.FieldMissingError{Identity: n.id, Path: `.status.addresses[?(@.type=="InternalIP")]`}
}

// Ready reports whether the node Ready condition is True.
func (n *Node) Ready(ctx context.Context) (bool, error) {
	conditions, err := n.nestedSlice(ctx, "status", "conditions")
	if err != nil {
		return false, err
	}
	for _, c := range conditions {
		m, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if m["type"] == "Ready" {
			return m["status"] == "True", nil
		}
	}
	return false, nil
}
