// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads declarative documents from YAML or JSON
// streams, files, directories and templates.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// LocalConfigAnnotation marks documents that are never sent to the
// backend.
const LocalConfigAnnotation = "config.kubernetes.io/local-config"

// Reader defines the interface for reading a set of manifests into
// documents.
type Reader interface {
	Read() ([]*unstructured.Unstructured, error)
}

// ReaderOptions defines the shared inputs for the different
// implementations of the Reader interface.
type ReaderOptions struct {
	// Mapper tells namespaced kinds from cluster scoped ones. It is only
	// needed when Namespace is set.
	Mapper           meta.RESTMapper
	Namespace        string
	EnforceNamespace bool
}

// Load decodes every document of a multi-document YAML or JSON stream.
// Empty documents are skipped and List documents are flattened.
func Load(r io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	var docs []*unstructured.Unstructured
	for {
		m := map[string]interface{}{}
		err := decoder.Decode(&m)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode manifest: %w", err)
		}
		if len(m) == 0 {
			continue
		}
		u := &unstructured.Unstructured{Object: m}
		if u.IsList() {
			list, err := u.ToList()
			if err != nil {
				return nil, fmt.Errorf("failed to read list: %w", err)
			}
			for i := range list.Items {
				docs = append(docs, &list.Items[i])
			}
			continue
		}
		docs = append(docs, u)
	}
	return docs, nil
}

// LoadBytes is Load over an in-memory manifest.
func LoadBytes(data []byte) ([]*unstructured.Unstructured, error) {
	return Load(bytes.NewReader(data))
}

// finish applies the shared post processing of every reader.
func finish(docs []*unstructured.Unstructured, opts ReaderOptions) ([]*unstructured.Unstructured, error) {
	docs = filterLocalConfig(docs)
	for _, d := range docs {
		if _, err := object.IdentityFromUnstructured(d); err != nil {
			return nil, fmt.Errorf("invalid manifest document %q: %w", d.GetName(), err)
		}
	}
	if err := setNamespaces(opts.Mapper, docs, opts.Namespace, opts.EnforceNamespace); err != nil {
		return nil, err
	}
	return docs, nil
}

func filterLocalConfig(docs []*unstructured.Unstructured) []*unstructured.Unstructured {
	var out []*unstructured.Unstructured
	for _, d := range docs {
		if d.GetAnnotations()[LocalConfigAnnotation] == "true" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// setNamespaces verifies that every namespaced document has the
// namespace set, and if one does not, sets it to defaultNamespace.
// The scope of a kind is looked up in the mapper first and, if the
// mapper does not know the kind, in the CRDs among the documents.
func setNamespaces(mapper meta.RESTMapper, docs []*unstructured.Unstructured,
	defaultNamespace string, enforceNamespace bool) error {
	if defaultNamespace == "" {
		return nil
	}
	if mapper == nil {
		return fmt.Errorf("a REST mapper is required to default namespaces")
	}

	var crds []*unstructured.Unstructured
	for _, d := range docs {
		if object.IsCRD(d) {
			crds = append(crds, d)
		}
	}

	for _, d := range docs {
		if ns := d.GetNamespace(); ns != "" {
			if enforceNamespace && ns != defaultNamespace {
				return fmt.Errorf("the namespace from the provided object %q "+
					"does not match the namespace %q", ns, defaultNamespace)
			}
			continue
		}
		scope, err := object.LookupScope(d, crds, mapper)
		if err != nil {
			return fmt.Errorf("can't find scope for resource %s: %w", d.GetName(), err)
		}
		if scope.Name() == meta.RESTScopeNameNamespace {
			d.SetNamespace(defaultNamespace)
		}
	}
	return nil
}
