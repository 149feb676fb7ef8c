// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/virt-harness/pkg/object"
)

var (
	NamespaceGVK = schema.GroupVersionKind{Version: "v1", Kind: object.KindNamespace}
	NodeGVK      = schema.GroupVersionKind{Version: "v1", Kind: object.KindNode}
	PodGVK       = schema.GroupVersionKind{Version: "v1", Kind: object.KindPod}
	VMGVK        = schema.GroupVersionKind{Group: "kubevirt.io", Version: "v1alpha3", Kind: object.KindVirtualMachine}
	VMIGVK       = schema.GroupVersionKind{Group: "kubevirt.io", Version: "v1alpha3", Kind: object.KindVirtualMachineInstance}
)

// NewFakeRESTMapper returns a mapper that knows the passed kinds as
// namespace scoped.
func NewFakeRESTMapper(gvks ...schema.GroupVersionKind) meta.RESTMapper {
	var groupVersions []schema.GroupVersion
	for _, gvk := range gvks {
		groupVersions = append(groupVersions, gvk.GroupVersion())
	}
	mapper := meta.NewDefaultRESTMapper(groupVersions)
	for _, gvk := range gvks {
		mapper.Add(gvk, meta.RESTScopeNamespace)
	}
	return mapper
}

// NewHarnessRESTMapper returns a mapper for every kind the harness has a
// handle for, with Namespace and Node cluster scoped.
func NewHarnessRESTMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper([]schema.GroupVersion{
		NamespaceGVK.GroupVersion(),
		VMGVK.GroupVersion(),
	})
	mapper.Add(NamespaceGVK, meta.RESTScopeRoot)
	mapper.Add(NodeGVK, meta.RESTScopeRoot)
	mapper.Add(PodGVK, meta.RESTScopeNamespace)
	mapper.Add(VMGVK, meta.RESTScopeNamespace)
	mapper.Add(VMIGVK, meta.RESTScopeNamespace)
	return mapper
}
