// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

// YamlStringer delays YAML marshalling for logging until String() is called.
type YamlStringer struct {
	O *unstructured.Unstructured
}

// String marshals the wrapped document to a YAML string. If serializing
// errors, the error string will be returned instead. This is primarily for
// use with verbose logging.
func (ys YamlStringer) String() string {
	if IsEmpty(ys.O) {
		return "{}\n"
	}
	jsonBytes, err := ys.O.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<<failed to serialize as json: %s>>", err)
	}
	yamlBytes, err := yaml.JSONToYAML(jsonBytes)
	if err != nil {
		return fmt.Sprintf("<<failed to convert from json to yaml: %s>>", err)
	}
	return string(yamlBytes)
}
