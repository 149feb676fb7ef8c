// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0
//
// The testutil package houses utility function for testing.

package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Unstructured translates the passed manifest string into an object in
// Unstructured format. The mutators modify the object before returning.
func Unstructured(t *testing.T, manifest string, mutators ...Mutator) *unstructured.Unstructured {
	u := YamlToUnstructured(t, manifest)
	for _, m := range mutators {
		m.Mutate(u)
	}
	return u
}

// ToIdentity translates a manifest into the identity addressing it.
func ToIdentity(t *testing.T, manifest string) object.ResourceIdentity {
	id, err := object.IdentityFromUnstructured(Unstructured(t, manifest))
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return id
}

// Mutator inteface defines a function to update an object while
// building it for a test.
type Mutator interface {
	Mutate(u *unstructured.Unstructured)
}

// MutatorFunc adapts a plain function into a Mutator.
type MutatorFunc func(u *unstructured.Unstructured)

func (f MutatorFunc) Mutate(u *unstructured.Unstructured) {
	f(u)
}

// WithField returns a Mutator which sets value at the field path.
func WithField(value interface{}, fields ...string) Mutator {
	return MutatorFunc(func(u *unstructured.Unstructured) {
		_ = unstructured.SetNestedField(u.Object, value, fields...)
	})
}

// WithPhase sets status.phase.
func WithPhase(phase string) Mutator {
	return WithField(phase, "status", "phase")
}

// WithLabels sets metadata.labels.
func WithLabels(labels map[string]string) Mutator {
	return MutatorFunc(func(u *unstructured.Unstructured) {
		u.SetLabels(labels)
	})
}

// WithNodeName sets spec.nodeName, as the scheduler does for pods.
func WithNodeName(node string) Mutator {
	return WithField(node, "spec", "nodeName")
}

// WithRunning sets spec.running on a VirtualMachine.
func WithRunning(running bool) Mutator {
	return WithField(running, "spec", "running")
}

// WithInterfaces sets status.interfaces on a VirtualMachineInstance.
// Each entry is given as name, interfaceName, ipAddress, mac; empty
// values are left out of the document.
func WithInterfaces(ifaces ...[4]string) Mutator {
	return MutatorFunc(func(u *unstructured.Unstructured) {
		list := make([]interface{}, 0, len(ifaces))
		for _, iface := range ifaces {
			entry := map[string]interface{}{}
			for i, key := range []string{"name", "interfaceName", "ipAddress", "mac"} {
				if iface[i] != "" {
					entry[key] = iface[i]
				}
			}
			list = append(list, entry)
		}
		_ = unstructured.SetNestedSlice(u.Object, list, "status", "interfaces")
	})
}

// NewDoc builds a minimal document of the given type.
func NewDoc(apiVersion, kind, namespace, name string, mutators ...Mutator) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	if namespace != "" {
		u.SetNamespace(namespace)
	}
	for _, m := range mutators {
		m.Mutate(u)
	}
	return u
}

func NewNamespace(name string, mutators ...Mutator) *unstructured.Unstructured {
	return NewDoc(object.APIVersionV1, object.KindNamespace, "", name, mutators...)
}

func NewNode(name, internalIP string, mutators ...Mutator) *unstructured.Unstructured {
	u := NewDoc(object.APIVersionV1, object.KindNode, "", name)
	if internalIP != "" {
		_ = unstructured.SetNestedSlice(u.Object, []interface{}{
			map[string]interface{}{"type": "Hostname", "address": name},
			map[string]interface{}{"type": "InternalIP", "address": internalIP},
		}, "status", "addresses")
	}
	for _, m := range mutators {
		m.Mutate(u)
	}
	return u
}

func NewPod(namespace, name string, mutators ...Mutator) *unstructured.Unstructured {
	return NewDoc(object.APIVersionV1, object.KindPod, namespace, name, mutators...)
}

func NewVM(namespace, name string, mutators ...Mutator) *unstructured.Unstructured {
	return NewDoc(object.KubevirtAPIVersion, object.KindVirtualMachine, namespace, name, mutators...)
}

func NewVMI(namespace, name string, mutators ...Mutator) *unstructured.Unstructured {
	return NewDoc(object.KubevirtAPIVersion, object.KindVirtualMachineInstance, namespace, name, mutators...)
}
