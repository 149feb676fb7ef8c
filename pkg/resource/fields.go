// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/object"
)

func (h *Handle) nestedSlice(ctx context.Context, fields ...string) ([]interface{}, error) {
	u, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	if object.IsEmpty(u) {
		return nil, h.missing(fields...)
	}
	return object.NestedSlice(u, fields...)
}

func (h *Handle) missing(fields ...string) error {
	path := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		path = append(path, f)
	}
	return &object.FieldMissingError{Identity: h.id, Path: object.FieldPath(path)}
}

// stringEntries collects a string key from every map entry of a list.
func stringEntries(list []interface{}, key string) ([]string, error) {
	out := make([]string, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("entry %d is %T, not an object", i, item)
		}
		s, _, err := unstructured.NestedString(m, key)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
