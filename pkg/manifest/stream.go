// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// StreamReader reads manifests from the provided io.Reader.
type StreamReader struct {
	ReaderName string
	Reader     io.Reader

	ReaderOptions
}

var _ Reader = &StreamReader{}

// Read reads the manifests and returns them as documents.
func (r *StreamReader) Read() ([]*unstructured.Unstructured, error) {
	docs, err := Load(r.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.ReaderName, err)
	}
	return finish(docs, r.ReaderOptions)
}
