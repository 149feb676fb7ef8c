// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// FieldMissingError is returned when a status or spec field a caller
// depends on is absent from a document, e.g. a pod that has not been
// scheduled yet has no status.phase.
type FieldMissingError struct {
	Identity ResourceIdentity
	Path     string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("field %s not found in %s", e.Path, e.Identity)
}

// IsFieldMissing returns true if err is or wraps a *FieldMissingError.
func IsFieldMissing(err error) bool {
	var missing *FieldMissingError
	return errors.As(err, &missing)
}

// NestedString returns the string at the given field path. A missing or
// empty document yields a *FieldMissingError; a value of the wrong type
// yields a conversion error.
func NestedString(u *unstructured.Unstructured, fields ...string) (string, error) {
	if IsEmpty(u) {
		return "", missing(u, fields)
	}
	val, found, err := unstructured.NestedString(u.Object, fields...)
	if err != nil {
		return "", err
	}
	if !found {
		return "", missing(u, fields)
	}
	return val, nil
}

// NestedBool returns the boolean at the given field path.
func NestedBool(u *unstructured.Unstructured, fields ...string) (bool, error) {
	if IsEmpty(u) {
		return false, missing(u, fields)
	}
	val, found, err := unstructured.NestedBool(u.Object, fields...)
	if err != nil {
		return false, err
	}
	if !found {
		return false, missing(u, fields)
	}
	return val, nil
}

// NestedSlice returns a deep copy of the slice at the given field path.
func NestedSlice(u *unstructured.Unstructured, fields ...string) ([]interface{}, error) {
	if IsEmpty(u) {
		return nil, missing(u, fields)
	}
	val, found, err := unstructured.NestedSlice(u.Object, fields...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missing(u, fields)
	}
	return val, nil
}

func missing(u *unstructured.Unstructured, fields []string) error {
	id := ResourceIdentity{}
	if !IsEmpty(u) {
		id = ResourceIdentity{
			Kind:       u.GetKind(),
			APIVersion: u.GetAPIVersion(),
			Namespace:  u.GetNamespace(),
			Name:       u.GetName(),
		}
	}
	path := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		path = append(path, f)
	}
	return &FieldMissingError{Identity: id, Path: FieldPath(path)}
}

// fieldNameRegex matches keys that can be written with dot notation.
var fieldNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([-_a-zA-Z0-9]*[a-zA-Z0-9])?$`)

// FieldPath formats a list of KRM field keys as a JSONPath expression.
// The only valid field keys in KRM are strings (map keys) and ints (list
// indices). Non-identifier strings are quoted with brackets.
func FieldPath(fieldPath []interface{}) string {
	var sb strings.Builder
	for _, field := range fieldPath {
		switch typedField := field.(type) {
		case string:
			if fieldNameRegex.MatchString(typedField) && !isNumeric(typedField) {
				sb.WriteString(".")
				sb.WriteString(typedField)
			} else {
				sb.WriteString(fmt.Sprintf("[%q]", typedField))
			}
		case int:
			sb.WriteString(fmt.Sprintf("[%d]", typedField))
		default:
			// invalid type, format anyway
			sb.WriteString(fmt.Sprintf("[%#v]", typedField))
		}
	}
	return sb.String()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
