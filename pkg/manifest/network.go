// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// BridgeNetwork attaches a VM to a secondary network through a bridge
// interface backed by a multus network attachment.
type BridgeNetwork struct {
	// Name names both the VM interface and the VM network.
	Name string
	// NetworkName is the network attachment definition; Name is used
	// when empty.
	NetworkName string
}

var templateSpec = []string{"spec", "template", "spec"}

func templateField(fields ...string) []string {
	return append(append([]string{}, templateSpec...), fields...)
}

// AddBridgeNetwork appends a bridge interface and the matching multus
// network to a VirtualMachine document.
func AddBridgeNetwork(vm *unstructured.Unstructured, network BridgeNetwork) error {
	if err := checkVM(vm); err != nil {
		return err
	}
	if network.Name == "" {
		return fmt.Errorf("bridge network name is required")
	}
	networkName := network.NetworkName
	if networkName == "" {
		networkName = network.Name
	}
	err := appendToSlice(vm, map[string]interface{}{
		"name":   network.Name,
		"bridge": map[string]interface{}{},
	}, templateField("domain", "devices", "interfaces")...)
	if err != nil {
		return err
	}
	return appendToSlice(vm, map[string]interface{}{
		"name":   network.Name,
		"multus": map[string]interface{}{"networkName": networkName},
	}, templateField("networks")...)
}

// AppendCloudInitCommands adds runcmd lines to the NoCloud user data of a
// VirtualMachine document. A runcmd section is started when the user
// data has none.
func AppendCloudInitCommands(vm *unstructured.Unstructured, commands ...string) error {
	if err := checkVM(vm); err != nil {
		return err
	}
	if len(commands) == 0 {
		return nil
	}
	volumes, found, err := unstructured.NestedSlice(vm.Object, templateField("volumes")...)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s has no volumes", vm.GetName())
	}
	for i, v := range volumes {
		vol, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		userData, found, err := unstructured.NestedString(vol, "cloudInitNoCloud", "userData")
		if err != nil || !found {
			continue
		}
		var sb strings.Builder
		sb.WriteString(strings.TrimRight(userData, "\n"))
		sb.WriteString("\n")
		if !strings.Contains(userData, "runcmd:") {
			sb.WriteString("runcmd:\n")
		}
		for _, c := range commands {
			sb.WriteString("  - ")
			sb.WriteString(c)
			sb.WriteString("\n")
		}
		if err := unstructured.SetNestedField(vol, sb.String(), "cloudInitNoCloud", "userData"); err != nil {
			return err
		}
		volumes[i] = vol
		return unstructured.SetNestedSlice(vm.Object, volumes, templateField("volumes")...)
	}
	return fmt.Errorf("%s has no cloudInitNoCloud user data", vm.GetName())
}

// MutateVMNetworks attaches the VM to every bridge network and appends
// the cloud-init commands that configure them inside the guest.
func MutateVMNetworks(vm *unstructured.Unstructured, networks []BridgeNetwork, commands []string) error {
	for _, n := range networks {
		if err := AddBridgeNetwork(vm, n); err != nil {
			return err
		}
	}
	return AppendCloudInitCommands(vm, commands...)
}

func checkVM(vm *unstructured.Unstructured) error {
	if object.IsEmpty(vm) {
		return fmt.Errorf("virtual machine document is empty")
	}
	if vm.GetKind() != object.KindVirtualMachine {
		return fmt.Errorf("expected a %s document, got %s", object.KindVirtualMachine, vm.GetKind())
	}
	return nil
}

func appendToSlice(u *unstructured.Unstructured, value interface{}, fields ...string) error {
	list, _, err := unstructured.NestedSlice(u.Object, fields...)
	if err != nil {
		return err
	}
	list = append(list, value)
	return unstructured.SetNestedSlice(u.Object, list, fields...)
}
