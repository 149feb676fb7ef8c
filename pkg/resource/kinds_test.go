// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"
	"sigs.k8s.io/virt-harness/pkg/backend/mock"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/testutil"
)

// commandRecorder is a Runner that records command lines and replies
// with a fixed result.
type commandRecorder struct {
	commands []string
	ok       bool
	output   string
}

func (r *commandRecorder) Run(command string) (bool, string) {
	r.commands = append(r.commands, command)
	return r.ok, r.output
}

var _ exec.Runner = &commandRecorder{}

func TestNamespace(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	runner := &commandRecorder{ok: true}
	b := newFakeBackend(testutil.NewNamespace("active-ns", testutil.WithPhase("Active")))

	ns := NewNamespace(b, "active-ns", WithClock(fc), WithRunner(runner), WithKubectl("oc"))
	assert.Equal(t, object.ResourceIdentity{Kind: "Namespace", APIVersion: "v1", Name: "active-ns"}, ns.Identity())
	assert.True(t, ns.WaitForActive(context.TODO(), Within(time.Second, 0)))

	require.NoError(t, ns.SwitchContext())
	assert.Equal(t, []string{"oc config set-context --current --namespace=active-ns"}, runner.commands)

	runner.ok = false
	runner.output = "error: no current context is set\n"
	err := ns.SwitchContext()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no current context is set")
}

func TestNamespace_CreateAndSwitch(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	runner := &commandRecorder{ok: true}
	ctrl := gomock.NewController(t)
	m := mock.NewMockBackend(ctrl)
	created := testutil.NewNamespace("test-ns")

	m.EXPECT().Create(gomock.Any(), "v1", "Namespace", "", gomock.Any()).Return(created, nil)
	gomock.InOrder(
		m.EXPECT().List(gomock.Any(), "v1", "Namespace", gomock.Any()).Return(items(created), nil),
		m.EXPECT().List(gomock.Any(), "v1", "Namespace", gomock.Any()).
			Return(items(testutil.NewNamespace("test-ns", testutil.WithPhase("Active"))), nil),
	)

	ns := NewNamespace(m, "test-ns", WithClock(fc), WithRunner(runner))
	require.NoError(t, ns.CreateAndSwitch(context.TODO(), WaitOptions{}))
	assert.Equal(t, time.Second, fc.Since(t0))
	assert.Equal(t, []string{"kubectl config set-context --current --namespace=test-ns"}, runner.commands)
}

func TestNode(t *testing.T) {
	ready := testutil.WithField([]interface{}{
		map[string]interface{}{"type": "MemoryPressure", "status": "False"},
		map[string]interface{}{"type": "Ready", "status": "True"},
	}, "status", "conditions")
	worker := testutil.WithLabels(map[string]string{"node-role.kubernetes.io/worker": ""})
	b := newFakeBackend(
		testutil.NewNode("node01", "192.168.66.101", ready, worker),
		testutil.NewNode("node02", "192.168.66.102", worker),
		testutil.NewNode("master", ""),
	)

	nodes, err := ListNodes(context.TODO(), b, "node-role.kubernetes.io/worker")
	require.NoError(t, err)
	names := []string{}
	for _, n := range nodes {
		names = append(names, n.Name())
	}
	assert.ElementsMatch(t, []string{"node01", "node02"}, names)

	ip, err := NewNode(b, "node01").InternalIP(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "192.168.66.101", ip)

	_, err = NewNode(b, "master").InternalIP(context.TODO())
	assert.True(t, object.IsFieldMissing(err))

	_, err = NewNode(b, "absent").InternalIP(context.TODO())
	assert.True(t, object.IsFieldMissing(err))

	isReady, err := NewNode(b, "node01").Ready(context.TODO())
	require.NoError(t, err)
	assert.True(t, isReady)

	_, err = NewNode(b, "node02").Ready(context.TODO())
	assert.True(t, object.IsFieldMissing(err))
}

func TestPod(t *testing.T) {
	runner := &commandRecorder{ok: true, output: "eth0\n"}
	pod := testutil.NewPod("test-ns", "privileged-pod",
		testutil.WithNodeName("node01"),
		testutil.WithField([]interface{}{
			map[string]interface{}{"name": "main", "image": "fedora"},
			map[string]interface{}{"name": "sidecar", "image": "busybox"},
		}, "spec", "containers"))
	b := newFakeBackend(pod, testutil.NewPod("test-ns", "pending"))
	p := NewPod(b, "test-ns", "privileged-pod", WithRunner(runner))

	containers, err := p.Containers(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "sidecar"}, containers)

	node, err := p.NodeName(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "node01", node)

	_, err = NewPod(b, "test-ns", "pending").NodeName(context.TODO())
	assert.True(t, object.IsFieldMissing(err))

	ok, out := p.Exec("ls /sys/class/net", "main")
	assert.True(t, ok)
	assert.Equal(t, "eth0\n", out)
	ok, _ = p.Exec("ip link", "")
	assert.True(t, ok)
	assert.Equal(t, []string{
		"kubectl exec -i privileged-pod -n test-ns -c main -- ls /sys/class/net",
		"kubectl exec -i privileged-pod -n test-ns -- ip link",
	}, runner.commands)

	pods, err := ListPods(context.TODO(), b, "test-ns", "")
	require.NoError(t, err)
	assert.Len(t, pods, 2)
}

func TestVirtualMachine_StartStop(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	runner := &commandRecorder{ok: true}
	ctrl := gomock.NewController(t)
	m := mock.NewMockBackend(ctrl)
	stopped := testutil.NewVM("test-ns", "vm-fedora", testutil.WithRunning(false))
	started := testutil.NewVM("test-ns", "vm-fedora", testutil.WithRunning(true))

	gomock.InOrder(
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachine", gomock.Any()).Return(items(stopped), nil).Times(2),
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachine", gomock.Any()).Return(items(started), nil),
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachine", gomock.Any()).Return(items(stopped), nil),
	)

	vm := NewVirtualMachine(m, "test-ns", "vm-fedora", WithClock(fc), WithRunner(runner))
	require.NoError(t, vm.Start(context.TODO(), StartStopOptions{Wait: true}))
	assert.Equal(t, 2*time.Second, fc.Since(t0))

	require.NoError(t, vm.Stop(context.TODO(), StartStopOptions{Wait: true}))
	assert.Equal(t, []string{
		"virtctl start vm-fedora -n test-ns",
		"virtctl stop vm-fedora -n test-ns",
	}, runner.commands)
}

func TestVirtualMachine_StartFailure(t *testing.T) {
	runner := &commandRecorder{ok: false, output: "virtualmachine not found"}
	ctrl := gomock.NewController(t)
	m := mock.NewMockBackend(ctrl)

	vm := NewVirtualMachine(m, "test-ns", "vm-fedora", WithRunner(runner), WithVirtctl("/usr/bin/virtctl"))
	err := vm.Start(context.TODO(), StartStopOptions{Wait: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/usr/bin/virtctl start vm-fedora -n test-ns")
}

func TestVirtualMachine_WaitForStatus(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	b := newFakeBackend(testutil.NewVM("test-ns", "vm-a",
		testutil.WithRunning(true),
		testutil.WithField("Running", "status", "printableStatus")))

	var r Resource = NewVirtualMachine(b, "test-ns", "vm-a", WithClock(fc))
	assert.True(t, r.WaitForStatus(context.TODO(), "true", Within(time.Second, 0)))
	assert.True(t, r.WaitForStatus(context.TODO(), "Running", Within(time.Second, 0)))
	assert.False(t, r.WaitForStatus(context.TODO(), "false", Within(time.Second, 0)))
}

func TestVirtualMachine_NodeNameFromInstance(t *testing.T) {
	b := newFakeBackend(
		testutil.NewVM("test-ns", "vm-a", testutil.WithRunning(true)),
		testutil.NewVMI("test-ns", "vm-a", testutil.WithField("node02", "status", "nodeName"),
			testutil.WithInterfaces([4]string{"default", "eth0", "10.244.0.12/24", "02:00:00:00:00:01"})),
	)
	vm := NewVirtualMachine(b, "test-ns", "vm-a")

	node, err := vm.NodeName(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "node02", node)

	ifaces, err := vm.Interfaces(context.TODO())
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "10.244.0.12", ifaces[0].IP())
}

func TestVirtualMachine_NodeNameNotScheduled(t *testing.T) {
	b := newFakeBackend(
		testutil.NewVM("test-ns", "vm-a", testutil.WithRunning(true)),
		testutil.NewVMI("test-ns", "vm-a", testutil.WithPhase("Pending")),
	)

	_, err := NewVirtualMachine(b, "test-ns", "vm-a").NodeName(context.TODO())
	require.Error(t, err)
	assert.True(t, object.IsFieldMissing(err))
	assert.Contains(t, err.Error(), "node of VirtualMachine.kubevirt.io/v1alpha3 test-ns/vm-a")

	_, err = NewVirtualMachine(b, "test-ns", "vm-b").NodeName(context.TODO())
	assert.True(t, object.IsFieldMissing(err))
}

func TestVirtualMachineInstance_WaitForInterfaces(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	ctrl := gomock.NewController(t)
	m := mock.NewMockBackend(ctrl)

	noStatus := testutil.NewVMI("test-ns", "vmi-a", testutil.WithPhase("Scheduled"))
	partial := testutil.NewVMI("test-ns", "vmi-a", testutil.WithInterfaces(
		[4]string{"default", "eth0", "10.244.0.12/24", ""},
		[4]string{"br1", "", "", "02:00:00:00:00:02"},
	))
	complete := testutil.NewVMI("test-ns", "vmi-a", testutil.WithInterfaces(
		[4]string{"default", "eth0", "10.244.0.12/24", ""},
		[4]string{"br1", "eth1", "192.168.0.2/24", "02:00:00:00:00:02"},
	))
	gomock.InOrder(
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachineInstance", gomock.Any()).Return(nil, nil),
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachineInstance", gomock.Any()).Return(items(noStatus), nil),
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachineInstance", gomock.Any()).Return(items(partial), nil),
		m.EXPECT().List(gomock.Any(), object.KubevirtAPIVersion, "VirtualMachineInstance", gomock.Any()).Return(items(complete), nil).Times(2),
	)

	vmi := NewVirtualMachineInstance(m, "test-ns", "vmi-a", WithClock(fc))
	ifaces, ok := vmi.WaitForInterfaces(context.TODO(), WaitOptions{})
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, fc.Since(t0))
	assert.Equal(t, []Interface{
		{Name: "default", InterfaceName: "eth0", IPAddress: "10.244.0.12/24"},
		{Name: "br1", InterfaceName: "eth1", IPAddress: "192.168.0.2/24", MAC: "02:00:00:00:00:02"},
	}, ifaces)

	ip, err := vmi.InterfaceIP(context.TODO(), "eth1")
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.2", ip)
}

func TestVirtualMachineInstance_WaitForInterfacesTimeout(t *testing.T) {
	fc := clocktesting.NewFakeClock(t0)
	b := newFakeBackend(testutil.NewVMI("test-ns", "vmi-a",
		testutil.WithPhase("Running"),
		testutil.WithInterfaces([4]string{"default", "", "10.244.0.12/24", ""})))
	vmi := NewVirtualMachineInstance(b, "test-ns", "vmi-a", WithClock(fc))

	assert.True(t, vmi.WaitForPhase(context.TODO(), "Running", WaitOptions{}))
	_, ok := vmi.WaitForInterfaces(context.TODO(), Within(5*time.Second, 2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, fc.Since(t0))

	_, err := vmi.InterfaceIP(context.TODO(), "eth0")
	assert.True(t, object.IsFieldMissing(err))
}

func TestResourceInterface(t *testing.T) {
	b := newFakeBackend()
	for _, r := range []Resource{
		NewNamespace(b, "ns"),
		NewNode(b, "node01"),
		NewPod(b, "ns", "p"),
		NewVirtualMachine(b, "ns", "vm"),
		NewVirtualMachineInstance(b, "ns", "vmi"),
	} {
		require.NoError(t, r.Identity().Validate())
		require.NoError(t, r.Delete(context.TODO(), DeleteOptions{}), r.Identity().String())
	}
}
