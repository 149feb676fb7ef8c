// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

var manifestExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// PathReader reads manifests from a file, or recursively from every
// YAML and JSON file below a directory.
type PathReader struct {
	Path string

	ReaderOptions
}

var _ Reader = &PathReader{}

// Read reads the manifests and returns them as documents. Files of a
// directory are read in lexical order.
func (p *PathReader) Read() ([]*unstructured.Unstructured, error) {
	files, err := manifestFiles(p.Path)
	if err != nil {
		return nil, err
	}
	var docs []*unstructured.Unstructured
	for _, f := range files {
		fileDocs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return finish(docs, p.ReaderOptions)
}

// LoadFile decodes every document of a manifest file.
func LoadFile(path string) ([]*unstructured.Unstructured, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	docs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

func manifestFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && manifestExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
