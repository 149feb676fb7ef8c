// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"fmt"
	"strconv"

	"k8s.io/klog/v2"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/sampler"
)

// StartStopOptions control VirtualMachine Start and Stop.
type StartStopOptions struct {
	// Wait blocks until spec.running reflects the request.
	Wait bool
	WaitOptions
}

// VirtualMachine is a handle for a KubeVirt VirtualMachine. Its status
// is the boolean spec.running rather than a phase.
type VirtualMachine struct {
	*Handle
}

var _ Resource = &VirtualMachine{}

func NewVirtualMachine(b backend.Backend, namespace, name string, opts ...Option) *VirtualMachine {
	return &VirtualMachine{Handle: New(b, object.ResourceIdentity{
		Kind:       object.KindVirtualMachine,
		APIVersion: object.KubevirtAPIVersion,
		Namespace:  namespace,
		Name:       name,
	}, opts...)}
}

// Instance returns a handle for the VMI of this virtual machine.
func (vm *VirtualMachine) Instance() *VirtualMachineInstance {
	return &VirtualMachineInstance{Handle: vm.derive(object.ResourceIdentity{
		Kind:       object.KindVirtualMachineInstance,
		APIVersion: vm.id.APIVersion,
		Namespace:  vm.id.Namespace,
		Name:       vm.id.Name,
	})}
}

// Running returns spec.running.
func (vm *VirtualMachine) Running(ctx context.Context) (bool, error) {
	u, err := vm.Get(ctx)
	if err != nil {
		return false, err
	}
	if object.IsEmpty(u) {
		return false, vm.missing("spec", "running")
	}
	return object.NestedBool(u, "spec", "running")
}

// WaitForRunning blocks until spec.running equals running.
func (vm *VirtualMachine) WaitForRunning(ctx context.Context, running bool, opts WaitOptions) bool {
	s, ok := newSampler(vm.Handle, "running="+strconv.FormatBool(running), opts, func() (bool, error) {
		return vm.Running(ctx)
	})
	if !ok {
		return false
	}
	return sampler.WaitForFuncStatus(s, running)
}

// WaitForStatus accepts "true" or "false" and waits on spec.running.
// Any other value is compared to status.printableStatus.
func (vm *VirtualMachine) WaitForStatus(ctx context.Context, status string, opts WaitOptions) bool {
	if running, err := strconv.ParseBool(status); err == nil {
		return vm.WaitForRunning(ctx, running, opts)
	}
	s, ok := newSampler(vm.Handle, "status "+status, opts, func() (string, error) {
		return vm.stringField(ctx, "status", "printableStatus")
	})
	if !ok {
		return false
	}
	return sampler.WaitForFuncStatus(s, status)
}

// Start starts the virtual machine through virtctl.
func (vm *VirtualMachine) Start(ctx context.Context, opts StartStopOptions) error {
	return vm.control(ctx, "start", true, opts)
}

// Stop stops the virtual machine through virtctl.
func (vm *VirtualMachine) Stop(ctx context.Context, opts StartStopOptions) error {
	return vm.control(ctx, "stop", false, opts)
}

func (vm *VirtualMachine) control(ctx context.Context, verb string, running bool, opts StartStopOptions) error {
	args := []string{verb, vm.id.Name}
	if vm.id.Namespace != "" {
		args = append(args, "-n", vm.id.Namespace)
	}
	command := exec.Command(vm.virtctl, args...)
	ok, out := vm.run(command)
	if !ok {
		return &CommandError{Identity: vm.id, Command: command, Output: out}
	}
	klog.V(2).Infof("%s %s", verb, vm.id)
	if !opts.Wait {
		return nil
	}
	if !vm.WaitForRunning(ctx, running, opts.WaitOptions) {
		return &TimeoutError{
			Identity:  vm.id,
			Condition: "running=" + strconv.FormatBool(running),
			Timeout:   vm.resolve(opts.WaitOptions).Timeout,
		}
	}
	return nil
}

// NodeName returns the node the virtual machine runs on, read from
// status.nodeName or, when the VM does not report it, from its VMI.
func (vm *VirtualMachine) NodeName(ctx context.Context) (string, error) {
	name, err := vm.stringField(ctx, "status", "nodeName")
	if err == nil && name != "" {
		return name, nil
	}
	if err != nil && !object.IsFieldMissing(err) {
		return "", err
	}
	name, err = vm.Instance().NodeName(ctx)
	if err != nil {
		return "", fmt.Errorf("node of %s: %w", vm.id, err)
	}
	return name, nil
}

// Interfaces returns the interfaces reported by the VMI.
func (vm *VirtualMachine) Interfaces(ctx context.Context) ([]Interface, error) {
	return vm.Instance().Interfaces(ctx)
}
