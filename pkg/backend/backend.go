// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package backend provides the generic connection to the declarative API
// that every resource handle is built on. A Backend resolves an
// (apiVersion, kind) pair into a collection endpoint and performs list,
// create and delete against it. It does not serialize calls, cache, or
// retry: each call is one remote request.
package backend

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Backend knows how to list, create and delete resources of any kind.
type Backend interface {
	// List returns the documents of the given kind matching opts. The
	// returned documents are snapshots owned by the caller.
	List(ctx context.Context, apiVersion, kind string, opts ListOptions) ([]unstructured.Unstructured, error)

	// Create creates the resource described by doc and returns the
	// document as stored by the server. A namespace set in doc takes
	// precedence over the namespace argument.
	Create(ctx context.Context, apiVersion, kind, namespace string, doc *unstructured.Unstructured) (*unstructured.Unstructured, error)

	// Delete deletes the named resource. Deleting an absent resource
	// returns a *NotFoundError.
	Delete(ctx context.Context, apiVersion, kind, namespace, name string) error
}

// ListOptions narrows a List call. The zero value lists every resource
// of the kind across all namespaces.
type ListOptions struct {
	Namespace     string
	LabelSelector string
	FieldSelector string
	Limit         int64
}

// NamesOnly projects a list result onto metadata.name. It is a pure
// post-filter; callers use it when only existence or names matter.
func NamesOnly(docs []unstructured.Unstructured) []string {
	return object.Names(docs)
}

// ListNames lists resources and returns only their names.
func ListNames(ctx context.Context, b Backend, apiVersion, kind string, opts ListOptions) ([]string, error) {
	docs, err := b.List(ctx, apiVersion, kind, opts)
	if err != nil {
		return nil, err
	}
	return NamesOnly(docs), nil
}
