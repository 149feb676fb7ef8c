// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

const (
	// APIVersionV1 is the core API group version.
	APIVersionV1 = "v1"
	// KubevirtAPIVersion is the virtualization API version the harness
	// targets by default.
	KubevirtAPIVersion = "kubevirt.io/v1alpha3"
	// KubevirtV1 is the stable virtualization API version.
	KubevirtV1 = "kubevirt.io/v1"
)

const (
	KindNamespace              = "Namespace"
	KindNode                   = "Node"
	KindPod                    = "Pod"
	KindVirtualMachine         = "VirtualMachine"
	KindVirtualMachineInstance = "VirtualMachineInstance"
)

// Lifecycle phases reported in status.phase.
const (
	PhaseActive      = "Active"
	PhaseTerminating = "Terminating"
	PhasePending     = "Pending"
	PhaseScheduling  = "Scheduling"
	PhaseScheduled   = "Scheduled"
	PhaseRunning     = "Running"
	PhaseSucceeded   = "Succeeded"
	PhaseFailed      = "Failed"
	PhaseUnknown     = "Unknown"
)
