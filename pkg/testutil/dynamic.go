// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

// ListKinds maps every resource of NewHarnessRESTMapper to its list kind,
// as required by the fake dynamic client.
var ListKinds = map[schema.GroupVersionResource]string{
	{Version: "v1", Resource: "namespaces"}:                                          "NamespaceList",
	{Version: "v1", Resource: "nodes"}:                                               "NodeList",
	{Version: "v1", Resource: "pods"}:                                                "PodList",
	{Group: "kubevirt.io", Version: "v1alpha3", Resource: "virtualmachines"}:         "VirtualMachineList",
	{Group: "kubevirt.io", Version: "v1alpha3", Resource: "virtualmachineinstances"}: "VirtualMachineInstanceList",
}

// NewFakeDynamicClient returns a fake dynamic client seeded with objs,
// able to list every kind the harness knows.
func NewFakeDynamicClient(objs ...runtime.Object) *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), ListKinds, objs...)
}
