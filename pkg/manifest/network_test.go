// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/virt-harness/pkg/testutil"
)

var fedoraVM = `
apiVersion: kubevirt.io/v1alpha3
kind: VirtualMachine
metadata:
  name: vm-fedora-1
spec:
  running: true
  template:
    spec:
      domain:
        devices:
          interfaces:
          - name: default
            bridge: {}
      networks:
      - name: default
        pod: {}
      volumes:
      - name: containerdisk
        containerDisk:
          image: kubevirt/fedora-cloud-container-disk-demo
      - name: cloudinitdisk
        cloudInitNoCloud:
          userData: |
            #cloud-config
            password: fedora
            chpasswd: { expire: False }
`

func TestMutateVMNetworks(t *testing.T) {
	vm := testutil.YamlToUnstructured(t, fedoraVM)

	err := MutateVMNetworks(vm,
		[]BridgeNetwork{{Name: "ovs-vlan-net"}, {Name: "ovs-net-bond", NetworkName: "bond-net"}},
		[]string{
			"nmcli con add type ethernet con-name eth1 ifname eth1",
			"nmcli con mod eth1 ipv4.addresses 192.168.0.1/24 ipv4.method manual",
		})
	require.NoError(t, err)

	ifaces, _, err := unstructured.NestedSlice(vm.Object, "spec", "template", "spec", "domain", "devices", "interfaces")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "default", "bridge": map[string]interface{}{}},
		map[string]interface{}{"name": "ovs-vlan-net", "bridge": map[string]interface{}{}},
		map[string]interface{}{"name": "ovs-net-bond", "bridge": map[string]interface{}{}},
	}, ifaces)

	networks, _, err := unstructured.NestedSlice(vm.Object, "spec", "template", "spec", "networks")
	require.NoError(t, err)
	require.Len(t, networks, 3)
	assert.Equal(t, map[string]interface{}{
		"name":   "ovs-net-bond",
		"multus": map[string]interface{}{"networkName": "bond-net"},
	}, networks[2])

	volumes, _, err := unstructured.NestedSlice(vm.Object, "spec", "template", "spec", "volumes")
	require.NoError(t, err)
	userData, _, err := unstructured.NestedString(volumes[1].(map[string]interface{}), "cloudInitNoCloud", "userData")
	require.NoError(t, err)
	assert.Equal(t, "#cloud-config\npassword: fedora\nchpasswd: { expire: False }\nruncmd:\n"+
		"  - nmcli con add type ethernet con-name eth1 ifname eth1\n"+
		"  - nmcli con mod eth1 ipv4.addresses 192.168.0.1/24 ipv4.method manual\n", userData)

	// a second call extends the existing runcmd section
	require.NoError(t, AppendCloudInitCommands(vm, "systemctl start qemu-guest-agent"))
	volumes, _, _ = unstructured.NestedSlice(vm.Object, "spec", "template", "spec", "volumes")
	userData, _, _ = unstructured.NestedString(volumes[1].(map[string]interface{}), "cloudInitNoCloud", "userData")
	assert.Contains(t, userData, "ipv4.method manual\n  - systemctl start qemu-guest-agent\n")
	assert.Equal(t, 1, strings.Count(userData, "runcmd:"))
}

func TestMutateVMNetworks_Errors(t *testing.T) {
	assert.Error(t, AddBridgeNetwork(testutil.NewPod("ns", "p"), BridgeNetwork{Name: "x"}))
	assert.Error(t, AddBridgeNetwork(testutil.YamlToUnstructured(t, fedoraVM), BridgeNetwork{}))
	assert.Error(t, AppendCloudInitCommands(testutil.NewVM("ns", "vm"), "true"))
	assert.NoError(t, AppendCloudInitCommands(testutil.NewVM("ns", "vm")))
}
