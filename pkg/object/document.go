// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"encoding/json"
	"fmt"

	"github.com/spyzhov/ajson"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Empty returns a new document with no fields. Handles return it in
// place of a nil pointer when a resource does not exist.
func Empty() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{}}
}

// IsEmpty returns true if the document is nil or has no fields. This is
// the only check callers need to tell "absent" from "present".
func IsEmpty(u *unstructured.Unstructured) bool {
	return u == nil || len(u.Object) == 0
}

// Names maps metadata.name over the passed documents, preserving order.
func Names(docs []unstructured.Unstructured) []string {
	names := make([]string, 0, len(docs))
	for i := range docs {
		names = append(names, docs[i].GetName())
	}
	return names
}

// FindByName returns a deep copy of the first document whose
// metadata.name equals name, or an empty document.
func FindByName(docs []unstructured.Unstructured, name string) *unstructured.Unstructured {
	for i := range docs {
		if docs[i].GetName() == name {
			return docs[i].DeepCopy()
		}
	}
	return Empty()
}

// DeepCopyList returns deep copies of the passed documents so that
// callers can never mutate a snapshot shared with the backend.
func DeepCopyList(docs []unstructured.Unstructured) []unstructured.Unstructured {
	out := make([]unstructured.Unstructured, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].DeepCopy())
	}
	return out
}

// GetField evaluates a JSONPath expression against the document and
// returns the matched values. A path that matches nothing returns an
// empty slice and no error.
func GetField(u *unstructured.Unstructured, expression string) ([]interface{}, error) {
	if IsEmpty(u) {
		return nil, nil
	}
	jsonBytes, err := json.Marshal(u.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document to json: %w", err)
	}
	root, err := ajson.Unmarshal(jsonBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	nodes, err := root.JSONPath(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate jsonpath expression (%s): %w", expression, err)
	}
	values := make([]interface{}, 0, len(nodes))
	for _, node := range nodes {
		value, err := node.Unpack()
		if err != nil {
			return nil, fmt.Errorf("failed to unpack jsonpath result: %w", err)
		}
		values = append(values, value)
	}
	return values, nil
}

// FieldEquals returns true if the JSONPath expression matches exactly
// one value and its string form equals expected. Numbers are compared in
// their JSON form, so "3" equals 3.
func FieldEquals(u *unstructured.Unstructured, expression, expected string) (bool, error) {
	values, err := GetField(u, expression)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, nil
	}
	switch v := values[0].(type) {
	case string:
		return v == expected, nil
	case nil:
		return expected == "null", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return false, err
		}
		return string(b) == expected, nil
	}
}
