// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// Interface is a guest network interface as reported in a
// VirtualMachineInstance status.
type Interface struct {
	// Name is the interface name in the VM spec.
	Name string
	// InterfaceName is the device name inside the guest.
	InterfaceName string
	// IPAddress may carry a CIDR suffix.
	IPAddress string
	MAC       string
}

// Ready reports whether the guest agent has reported both a name and
// an address for the interface.
func (i Interface) Ready() bool {
	return i.InterfaceName != "" && i.IPAddress != ""
}

// IP returns the address without CIDR suffix.
func (i Interface) IP() string {
	ip, _, _ := strings.Cut(i.IPAddress, "/")
	return ip
}

// VirtualMachineInstance is a handle for a running virtual machine.
type VirtualMachineInstance struct {
	*Handle
}

func NewVirtualMachineInstance(b backend.Backend, namespace, name string, opts ...Option) *VirtualMachineInstance {
	return &VirtualMachineInstance{Handle: New(b, object.ResourceIdentity{
		Kind:       object.KindVirtualMachineInstance,
		APIVersion: object.KubevirtAPIVersion,
		Namespace:  namespace,
		Name:       name,
	}, opts...)}
}

// WaitForPhase blocks until the VMI lifecycle phase equals phase.
func (v *VirtualMachineInstance) WaitForPhase(ctx context.Context, phase string, opts WaitOptions) bool {
	return v.WaitForStatus(ctx, phase, opts)
}

// NodeName returns the node the VMI runs on.
func (v *VirtualMachineInstance) NodeName(ctx context.Context) (string, error) {
	return v.stringField(ctx, "status", "nodeName")
}

// Interfaces returns the interfaces currently reported by the VMI.
func (v *VirtualMachineInstance) Interfaces(ctx context.Context) ([]Interface, error) {
	u, err := v.Get(ctx)
	if err != nil {
		return nil, err
	}
	if object.IsEmpty(u) {
		return nil, v.missing("status", "interfaces")
	}
	return interfacesOf(u)
}

func interfacesOf(u *unstructured.Unstructured) ([]Interface, error) {
	list, err := object.NestedSlice(u, "status", "interfaces")
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("status.interfaces[%d] is %T, not an object", i, item)
		}
		iface := Interface{}
		iface.Name, _, _ = unstructured.NestedString(m, "name")
		iface.InterfaceName, _, _ = unstructured.NestedString(m, "interfaceName")
		iface.IPAddress, _, _ = unstructured.NestedString(m, "ipAddress")
		iface.MAC, _, _ = unstructured.NestedString(m, "mac")
		out = append(out, iface)
	}
	return out, nil
}

// WaitForInterfaces blocks until the VMI reports at least one interface
// and every reported interface carries both a guest name and an
// address. It returns the interfaces of the satisfying observation.
func (v *VirtualMachineInstance) WaitForInterfaces(ctx context.Context, opts WaitOptions) ([]Interface, bool) {
	s, ok := newSampler(v.Handle, "reporting interfaces", opts, func() ([]Interface, error) {
		return v.Interfaces(ctx)
	})
	if !ok {
		return nil, false
	}
	for {
		sample, ok := s.Next()
		if !ok {
			return nil, false
		}
		if sample.Err != nil || len(sample.Value) == 0 {
			continue
		}
		if allReady(sample.Value) {
			s.Stop()
			return sample.Value, true
		}
	}
}

func allReady(ifaces []Interface) bool {
	for _, i := range ifaces {
		if !i.Ready() {
			return false
		}
	}
	return true
}

// InterfaceIP returns the address, without CIDR suffix, of the guest
// interface with the given device name.
func (v *VirtualMachineInstance) InterfaceIP(ctx context.Context, interfaceName string) (string, error) {
	ifaces, err := v.Interfaces(ctx)
	if err != nil {
		return "", err
	}
	for _, i := range ifaces {
		if i.InterfaceName == interfaceName && i.IPAddress != "" {
			return i.IP(), nil
		}
	}
	return "", &object.FieldMissingError{
		Identity: v.id,
		Path:     fmt.Sprintf(`.status.interfaces[?(@.interfaceName==%q)].ipAddress`, interfaceName),
	}
}
