// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0
//
// ResourceIdentity is the minimal set of information needed to
// address a resource through the generic backend. The four fields are:
//
//   Kind
//   APIVersion
//   Namespace (empty for cluster-scoped kinds)
//   Name (empty when the identity denotes a collection)
//
// Unlike the apply inventory, the version is part of the identity: the
// backend resolves (apiVersion, kind) into a collection endpoint, so two
// identities with different versions address different endpoints.

package object

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ResourceIdentity organizes and stores the addressing information
// for a remote resource.
type ResourceIdentity struct {
	Kind       string
	APIVersion string
	Namespace  string
	Name       string
}

// NewIdentity returns a ResourceIdentity filled with the passed values.
// The fields are normalized and validated; kind and apiVersion are
// required, namespace and name may be empty.
func NewIdentity(apiVersion, kind, namespace, name string) (ResourceIdentity, error) {
	id := ResourceIdentity{
		Kind:       strings.TrimSpace(kind),
		APIVersion: strings.TrimSpace(apiVersion),
		Namespace:  strings.TrimSpace(namespace),
		Name:       strings.TrimSpace(name),
	}
	if err := id.Validate(); err != nil {
		return ResourceIdentity{}, err
	}
	return id, nil
}

// NewIdentityOrDie is like NewIdentity but panics on invalid input. Only
// meant for identities built from constants.
func NewIdentityOrDie(apiVersion, kind, namespace, name string) ResourceIdentity {
	id, err := NewIdentity(apiVersion, kind, namespace, name)
	if err != nil {
		panic(err)
	}
	return id
}

// IdentityFromUnstructured extracts the identity of a declarative
// document from its apiVersion, kind, metadata.namespace and
// metadata.name fields.
func IdentityFromUnstructured(u *unstructured.Unstructured) (ResourceIdentity, error) {
	if u == nil || len(u.Object) == 0 {
		return ResourceIdentity{}, fmt.Errorf("attempting to read identity, but document is empty")
	}
	return NewIdentity(u.GetAPIVersion(), u.GetKind(), u.GetNamespace(), u.GetName())
}

// Validate checks that the identity can be resolved by a backend.
func (r ResourceIdentity) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("empty kind for resource %q", r.Name)
	}
	if r.APIVersion == "" {
		return fmt.Errorf("empty apiVersion for resource %s %q", r.Kind, r.Name)
	}
	if _, err := schema.ParseGroupVersion(r.APIVersion); err != nil {
		return fmt.Errorf("invalid apiVersion for resource %s %q: %w", r.Kind, r.Name, err)
	}
	return nil
}

// GroupVersionKind returns the GVK addressed by this identity. An
// unparsable apiVersion yields an empty group and version.
func (r ResourceIdentity) GroupVersionKind() schema.GroupVersionKind {
	gv, _ := schema.ParseGroupVersion(r.APIVersion)
	return gv.WithKind(r.Kind)
}

// GroupKind returns the GroupKind addressed by this identity.
func (r ResourceIdentity) GroupKind() schema.GroupKind {
	return r.GroupVersionKind().GroupKind()
}

// IsCollection returns true if the identity has no name and so denotes
// every resource of its kind (in its namespace).
func (r ResourceIdentity) IsCollection() bool {
	return r.Name == ""
}

// WithName returns a copy of the identity addressing the named resource.
func (r ResourceIdentity) WithName(name string) ResourceIdentity {
	r.Name = strings.TrimSpace(name)
	return r
}

// WithNamespace returns a copy of the identity in the given namespace.
func (r ResourceIdentity) WithNamespace(namespace string) ResourceIdentity {
	r.Namespace = strings.TrimSpace(namespace)
	return r
}

// Equals compares two identities.
func (r ResourceIdentity) Equals(other ResourceIdentity) bool {
	return r == other
}

// String returns a human readable form of the identity, e.g.
//
//	Pod.v1 test-ns/virt-launcher-abc
//	VirtualMachine.kubevirt.io/v1alpha3 vm-fedora-1
func (r ResourceIdentity) String() string {
	name := r.Name
	if name == "" {
		name = "*"
	}
	if r.Namespace != "" {
		name = r.Namespace + "/" + name
	}
	return fmt.Sprintf("%s.%s %s", r.Kind, r.APIVersion, name)
}

// Skeleton synthesizes the minimal document that creates the resource
// addressed by this identity: apiVersion, kind and metadata.name, plus
// metadata.namespace when set.
func (r ResourceIdentity) Skeleton() *unstructured.Unstructured {
	u := &unstructured.Unstructured{Object: map[string]interface{}{}}
	u.SetAPIVersion(r.APIVersion)
	u.SetKind(r.Kind)
	u.SetName(r.Name)
	if r.Namespace != "" {
		u.SetNamespace(r.Namespace)
	}
	return u
}

// IdentitiesToStrings converts a slice of identities to their string form.
func IdentitiesToStrings(ids []ResourceIdentity) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
