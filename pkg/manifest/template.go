// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// TemplateReader renders a Go template with the sprig function library
// and reads the result as manifests. Missing keys are an error.
type TemplateReader struct {
	Name     string
	Template string
	Data     interface{}

	ReaderOptions
}

var _ Reader = &TemplateReader{}

func (r *TemplateReader) Read() ([]*unstructured.Unstructured, error) {
	out, err := renderText(r.Name, r.Template, r.Data)
	if err != nil {
		return nil, err
	}
	docs, err := LoadBytes(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name, err)
	}
	return finish(docs, r.ReaderOptions)
}

// Render renders the template and decodes the result.
func Render(tmpl string, data interface{}) ([]*unstructured.Unstructured, error) {
	return (&TemplateReader{Name: "template", Template: tmpl, Data: data}).Read()
}

// RenderFile renders the template stored at path and decodes the result.
func RenderFile(path string, data interface{}) ([]*unstructured.Unstructured, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return (&TemplateReader{Name: path, Template: string(b), Data: data}).Read()
}

func renderText(name, text string, data interface{}) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
