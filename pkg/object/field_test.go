// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestFieldPath(t *testing.T) {
	tests := map[string]struct {
		fieldPath []interface{}
		expected  string
	}{
		"empty path": {
			fieldPath: []interface{}{},
			expected:  "",
		},
		"kind": {
			fieldPath: []interface{}{"kind"},
			expected:  ".kind",
		},
		"metadata.name": {
			fieldPath: []interface{}{"metadata", "name"},
			expected:  ".metadata.name",
		},
		"spec.versions[1].name": {
			fieldPath: []interface{}{"spec", "versions", 1, "name"},
			expected:  ".spec.versions[1].name",
		},
		"numeric": {
			fieldPath: []interface{}{"spec", "123"},
			expected:  `.spec["123"]`,
		},
		"alphanumeric, ends with number": {
			fieldPath: []interface{}{"spec", "abc123"},
			expected:  `.spec.abc123`,
		},
		"alphanumeric, ends with hyphen": {
			fieldPath: []interface{}{"spec", "abc123-"},
			expected:  `.spec["abc123-"]`,
		},
		"alphanumeric, ends with underscore": {
			fieldPath: []interface{}{"spec", "abc123_"},
			expected:  `.spec["abc123_"]`,
		},
		"alphanumeric, starts with hyphen": {
			fieldPath: []interface{}{"spec", "-abc123"},
			expected:  `.spec["-abc123"]`,
		},
		"alphanumeric, starts with underscore": {
			fieldPath: []interface{}{"spec", "_abc123"},
			expected:  `.spec["_abc123"]`,
		},
		"alphanumeric, starts with number": {
			fieldPath: []interface{}{"spec", "_abc123"},
			expected:  `.spec["_abc123"]`,
		},
		"alphanumeric, intrnal hyphen": {
			fieldPath: []interface{}{"spec", "abc-123"},
			expected:  `.spec.abc-123`,
		},
		"alphanumeric, intrnal underscore": {
			fieldPath: []interface{}{"spec", "abc_123"},
			expected:  `.spec.abc_123`,
		},
		"space": {
			fieldPath: []interface{}{"spec", "abc 123"},
			expected:  `.spec["abc 123"]`,
		},
		"tab": {
			fieldPath: []interface{}{"spec", "abc\t123"},
			expected:  `.spec["abc\t123"]`,
		},
		"linebreak": {
			fieldPath: []interface{}{"spec", "abc\n123"},
			expected:  `.spec["abc\n123"]`,
		},
		// result from invalid input doesn't matter, as long as it doesn't panic
		"invalid type: float": {
			fieldPath: []interface{}{"spec", float64(-1.0)},
			expected:  `.spec[-1]`,
		},
		"invalid type: struct": {
			fieldPath: []interface{}{"spec", struct{ Field string }{Field: "value"}},
			expected:  `.spec[struct { Field string }{Field:"value"}]`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			result := FieldPath(tc.fieldPath)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestNestedAccessors(t *testing.T) {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "kubevirt.io/v1alpha3",
		"kind":       "VirtualMachine",
		"metadata":   map[string]interface{}{"name": "vm-fedora-1", "namespace": "test-ns"},
		"spec":       map[string]interface{}{"running": false},
		"status": map[string]interface{}{
			"phase":      "Running",
			"interfaces": []interface{}{map[string]interface{}{"name": "default"}},
		},
	}}

	phase, err := NestedString(u, "status", "phase")
	require.NoError(t, err)
	assert.Equal(t, "Running", phase)

	running, err := NestedBool(u, "spec", "running")
	require.NoError(t, err)
	assert.False(t, running)

	ifaces, err := NestedSlice(u, "status", "interfaces")
	require.NoError(t, err)
	assert.Len(t, ifaces, 1)

	_, err = NestedString(u, "status", "nodeName")
	require.Error(t, err)
	assert.True(t, IsFieldMissing(err))
	assert.Equal(t,
		"field .status.nodeName not found in VirtualMachine.kubevirt.io/v1alpha3 test-ns/vm-fedora-1",
		err.Error())

	// wrong type is a conversion error, not a missing field
	_, err = NestedBool(u, "status", "phase")
	require.Error(t, err)
	assert.False(t, IsFieldMissing(err))

	_, err = NestedString(Empty(), "status", "phase")
	assert.True(t, IsFieldMissing(err))
	_, err = NestedSlice(nil, "status", "interfaces")
	assert.True(t, IsFieldMissing(err))
}

func TestIsFieldMissing(t *testing.T) {
	missing := &FieldMissingError{Path: ".status.nodeName"}
	tests := map[string]struct {
		err      error
		expected bool
	}{
		"nil": {
			err: nil,
		},
		"direct": {
			err:      missing,
			expected: true,
		},
		"wrapped": {
			err:      fmt.Errorf("vmi of vm-a: %w", missing),
			expected: true,
		},
		"wrapped twice": {
			err:      fmt.Errorf("node name: %w", fmt.Errorf("vmi of vm-a: %w", missing)),
			expected: true,
		},
		"other": {
			err: errors.New(".status.nodeName not found"),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsFieldMissing(tc.err))
		})
	}
}
