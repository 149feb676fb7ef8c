// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// NewDynamicBackend returns a Backend that talks directly to the API
// server through the dynamic client. The mapper resolves kinds into
// resources and tells namespaced kinds from cluster-scoped ones.
func NewDynamicBackend(client dynamic.Interface, mapper meta.RESTMapper) *DynamicBackend {
	return &DynamicBackend{
		client: client,
		mapper: mapper,
	}
}

var _ Backend = &DynamicBackend{}

// DynamicBackend reads and writes directly from/to an API server. It is
// safe for sequential reuse by any number of handles.
type DynamicBackend struct {
	client dynamic.Interface
	mapper meta.RESTMapper
}

// List implements Backend.
func (d *DynamicBackend) List(ctx context.Context, apiVersion, kind string, opts ListOptions) ([]unstructured.Unstructured, error) {
	id := object.ResourceIdentity{Kind: kind, APIVersion: apiVersion, Namespace: opts.Namespace}
	r, err := d.resourceInterface(id)
	if err != nil {
		return nil, err
	}
	klog.V(5).Infof("listing %s (labels=%q, fields=%q, limit=%d)", id, opts.LabelSelector, opts.FieldSelector, opts.Limit)
	list, err := r.List(ctx, metav1.ListOptions{
		LabelSelector: opts.LabelSelector,
		FieldSelector: opts.FieldSelector,
		Limit:         opts.Limit,
	})
	if err != nil {
		return nil, translateError(id, err)
	}
	return object.DeepCopyList(list.Items), nil
}

// Create implements Backend.
func (d *DynamicBackend) Create(ctx context.Context, apiVersion, kind, namespace string, doc *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	body, id, err := prepareDocument(apiVersion, kind, namespace, doc)
	if err != nil {
		return nil, err
	}
	r, err := d.resourceInterface(id)
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("creating %s", id)
	klog.V(6).Infof("create body:\n%s", object.YamlStringer{O: body})
	created, err := r.Create(ctx, body, metav1.CreateOptions{})
	if err != nil {
		return nil, translateError(id, err)
	}
	return created, nil
}

// Delete implements Backend.
func (d *DynamicBackend) Delete(ctx context.Context, apiVersion, kind, namespace, name string) error {
	id := object.ResourceIdentity{Kind: kind, APIVersion: apiVersion, Namespace: namespace, Name: name}
	if name == "" {
		return &InvalidDocumentError{Identity: id, Reason: "name is required for delete"}
	}
	r, err := d.resourceInterface(id)
	if err != nil {
		return err
	}
	klog.V(2).Infof("deleting %s", id)
	return translateError(id, r.Delete(ctx, name, metav1.DeleteOptions{}))
}

// resourceInterface resolves the identity into a dynamic resource
// client, scoped to the identity namespace for namespaced kinds. The
// namespace is ignored for cluster-scoped kinds.
func (d *DynamicBackend) resourceInterface(id object.ResourceIdentity) (dynamic.ResourceInterface, error) {
	if err := id.Validate(); err != nil {
		return nil, &InvalidDocumentError{Identity: id, Reason: "unresolvable identity", Err: err}
	}
	gvk := id.GroupVersionKind()
	mapping, err := d.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, translateError(id, err)
	}
	if mapping.Scope.Name() == meta.RESTScopeNameRoot || id.Namespace == "" {
		return d.client.Resource(mapping.Resource), nil
	}
	return d.client.Resource(mapping.Resource).Namespace(id.Namespace), nil
}

// prepareDocument validates a document before create and returns a
// copy with apiVersion, kind and namespace filled in from the call
// arguments where the document leaves them empty.
func prepareDocument(apiVersion, kind, namespace string, doc *unstructured.Unstructured) (*unstructured.Unstructured, object.ResourceIdentity, error) {
	id := object.ResourceIdentity{Kind: kind, APIVersion: apiVersion, Namespace: namespace}
	if object.IsEmpty(doc) {
		return nil, id, &InvalidDocumentError{Identity: id, Reason: "document is empty"}
	}
	body := doc.DeepCopy()
	if body.GetAPIVersion() == "" {
		body.SetAPIVersion(apiVersion)
	}
	if body.GetKind() == "" {
		body.SetKind(kind)
	}
	if body.GetNamespace() == "" && namespace != "" {
		body.SetNamespace(namespace)
	}
	id = object.ResourceIdentity{
		Kind:       body.GetKind(),
		APIVersion: body.GetAPIVersion(),
		Namespace:  body.GetNamespace(),
		Name:       body.GetName(),
	}
	if body.GetAPIVersion() != apiVersion || body.GetKind() != kind {
		return nil, id, &InvalidDocumentError{
			Identity: id,
			Reason:   fmt.Sprintf("document does not match requested type %s %s", apiVersion, kind),
		}
	}
	if body.GetName() == "" && body.GetGenerateName() == "" {
		return nil, id, &InvalidDocumentError{Identity: id, Reason: "metadata.name is required"}
	}
	return body, id, nil
}
