// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0
//

package testutil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/onsi/gomega/format"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// EqualOptions are the go-cmp options used by Equal. Empty and nil
// documents compare equal, matching the handle contract that an absent
// resource is any zero-length document.
var EqualOptions = []cmp.Option{
	cmpopts.EquateErrors(),
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(a, b *unstructured.Unstructured) bool {
		if a == nil || len(a.Object) == 0 {
			return b == nil || len(b.Object) == 0
		}
		return b != nil && reflect.DeepEqual(a.Object, b.Object)
	}),
}

// Equal returns a matcher for use with Gomega that uses go-cmp's cmp.Equal to
// compare and cmp.Diff to show the difference, if there is one.
//
// Example Usage:
// Expect(handle.Get(ctx)).To(testutil.Equal(expectedPod))
func Equal(expected interface{}) *cmpMatcher {
	return &cmpMatcher{expected: expected}
}

type cmpMatcher struct {
	expected    interface{}
	explanation error
}

func (cm *cmpMatcher) Match(actual interface{}) (bool, error) {
	match := cmp.Equal(actual, cm.expected, EqualOptions...)
	if !match {
		cm.explanation = errors.New(cmp.Diff(actual, cm.expected, EqualOptions...))
	}
	return match, nil
}

func (cm *cmpMatcher) FailureMessage(actual interface{}) string {
	return format.Message(actual, "to deeply equal", cm.expected) +
		"\nDiff:\n" + indent(cm.explanation.Error(), 1)
}

func (cm *cmpMatcher) NegatedFailureMessage(actual interface{}) string {
	return format.Message(actual, "not to deeply equal", cm.expected)
}

func indent(in string, indentation uint) string {
	indent := strings.Repeat(format.Indent, int(indentation))
	lines := strings.Split(in, "\n")
	return indent + strings.Join(lines, fmt.Sprintf("\n%s", indent))
}

// EqualErrorType returns an error with an Is(error)bool function that matches
// any error whose chain holds an error of the same type as the supplied error.
//
// Use with testutil.Equal or AssertEqual to handle error comparisons. The
// match only holds in that direction: errors.Is(actual, EqualErrorType(x))
// never consults it.
func EqualErrorType(err error) equalErrorType {
	return equalErrorType{
		err: err,
	}
}

type equalErrorType struct {
	err error
}

func (e equalErrorType) Error() string {
	return "EqualErrorType"
}

func (e equalErrorType) Is(err error) bool {
	want := reflect.TypeOf(e.err)
	for ; err != nil; err = errors.Unwrap(err) {
		if reflect.TypeOf(err) == want {
			return true
		}
	}
	return false
}

func (e equalErrorType) Unwrap() error {
	return e.err
}

// AssertEqual fails the test if the actual value does not deeply equal the
// expected value. Prints a diff on failure.
func AssertEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	matcher := Equal(expected)
	match, err := matcher.Match(actual)
	if err != nil {
		t.Errorf("errored testing equality: %s", err)
	}
	if !match {
		t.Error(matcher.FailureMessage(actual))
	}
}
