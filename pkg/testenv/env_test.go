// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package testenv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	clocktesting "k8s.io/utils/clock/testing"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/resource"
	"sigs.k8s.io/virt-harness/pkg/testutil"
)

func newEnv(runner exec.Runner, objs ...runtime.Object) *Env {
	cfg := config.Default()
	cfg.DefaultTimeout.Duration = 3 * time.Second
	b := backend.NewDynamicBackend(testutil.NewFakeDynamicClient(objs...), testutil.NewHarnessRESTMapper())
	s := config.NewSessionFromBackend(cfg, b, runner)
	s.Clock = clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(s)
}

func okRunner(commands *[]string, out string) exec.Runner {
	return exec.RunnerFunc(func(command string) (bool, string) {
		*commands = append(*commands, command)
		return true, out
	})
}

func TestTeardownOrder(t *testing.T) {
	e := newEnv(nil)
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		e.AddCleanup(name, func(context.Context) error {
			order = append(order, name)
			if name == "second" {
				return errors.New("boom")
			}
			return nil
		})
	}

	err := e.Teardown(context.TODO())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup second: boom")
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// cleanups run once
	assert.NoError(t, e.Teardown(context.TODO()))
	assert.Len(t, order, 3)
}

func TestPrepareNamespace(t *testing.T) {
	var commands []string
	e := newEnv(okRunner(&commands, ""))

	// the fake API server never sets the Active phase
	_, err := e.PrepareNamespace(context.TODO(), "test-ns")
	require.Error(t, err)
	assert.True(t, resource.IsTimeout(err))

	e = newEnv(okRunner(&commands, ""), testutil.NewNamespace("other"))
	ns := e.Session.Namespace("network-ns")
	require.NoError(t, ns.Create(context.TODO(), testutil.NewNamespace("network-ns", testutil.WithPhase("Active")), resource.CreateOptions{}))
	_, err = e.PrepareNamespace(context.TODO(), "network-ns")
	assert.True(t, backend.IsAlreadyExists(err))
}

func TestPrepareNamespace_Active(t *testing.T) {
	var commands []string
	e := newEnv(okRunner(&commands, ""))
	// creating an Active namespace document stands in for the namespace controller
	e.Session.Backend = activatingBackend{Backend: e.Session.Backend}

	ns, err := e.PrepareNamespace(context.TODO(), "network-ns")
	require.NoError(t, err)
	assert.Equal(t, "network-ns", ns.Name())
	assert.Equal(t, ns, e.Namespace)
	assert.Equal(t, []string{"kubectl config set-context --current --namespace=network-ns"}, commands)

	require.NoError(t, e.Teardown(context.TODO()))
	exists, err := ns.Exists(context.TODO())
	require.NoError(t, err)
	assert.False(t, exists)
}

// activatingBackend marks created namespaces as Active.
type activatingBackend struct {
	backend.Backend
}

func (b activatingBackend) Create(ctx context.Context, apiVersion, kind, namespace string, doc *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	if kind == object.KindNamespace {
		doc = doc.DeepCopy()
		testutil.WithPhase(object.PhaseActive).Mutate(doc)
	}
	return b.Backend.Create(ctx, apiVersion, kind, namespace, doc)
}

func TestDiscoverNodes(t *testing.T) {
	compute := testutil.WithLabels(map[string]string{"node-role.kubernetes.io/compute": "true"})
	e := newEnv(nil,
		testutil.NewNode("node01", "192.168.66.101", compute),
		testutil.NewNode("node02", "192.168.66.102", compute),
		testutil.NewNode("master", "192.168.66.100"),
	)

	nodes, err := e.DiscoverNodes(context.TODO(), "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"node01": "192.168.66.101", "node02": "192.168.66.102"}, nodes)

	e = newEnv(nil, testutil.NewNode("node03", ""))
	_, err = e.DiscoverNodes(context.TODO(), "!node-role.kubernetes.io/compute")
	assert.True(t, object.IsFieldMissing(err))
}

func privilegedPod(name, node string) *unstructured.Unstructured {
	return testutil.NewPod("network-ns", name,
		testutil.WithPhase(object.PhaseRunning),
		testutil.WithNodeName(node),
		testutil.WithLabels(map[string]string{"app": "privileged-test-pod"}),
		testutil.WithField([]interface{}{map[string]interface{}{"name": "privileged-container"}}, "spec", "containers"))
}

func TestDetectBondSupport(t *testing.T) {
	tests := map[string]struct {
		output    string
		supported bool
	}{
		"four nics":  {output: "eth0\neth1\neth2\neth3\n", supported: true},
		"three nics": {output: "eth0\neth1\neth2\n", supported: false},
	}

	for tn, tc := range tests {
		t.Run(tn, func(t *testing.T) {
			var commands []string
			e := newEnv(okRunner(&commands, tc.output), privilegedPod("pod-1", "node01"), privilegedPod("pod-2", "node02"))
			pods, err := resource.ListPods(context.TODO(), e.Session.Backend, "network-ns", "app=privileged-test-pod", e.Session.HandleOptions()...)
			require.NoError(t, err)

			supported, err := e.DetectBondSupport(context.TODO(), pods)
			require.NoError(t, err)
			assert.Equal(t, tc.supported, supported)
			assert.Equal(t, tc.supported, e.BondSupported)
			assert.Len(t, e.NICs, 2)
			assert.Len(t, commands, 2)
			for _, c := range commands {
				assert.True(t, strings.HasSuffix(c, "-c privileged-container -- "+NICsCommand), c)
			}
		})
	}
}

func TestDetectBondSupport_Errors(t *testing.T) {
	e := newEnv(nil)
	_, err := e.DetectBondSupport(context.TODO(), nil)
	assert.Error(t, err)

	failing := exec.RunnerFunc(func(string) (bool, string) { return false, "container not found" })
	e = newEnv(failing, privilegedPod("pod-1", "node01"))
	_, err = e.DetectBondSupport(context.TODO(), []*resource.Pod{e.Session.Pod("network-ns", "pod-1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container not found")

	e = newEnv(failing, testutil.NewPod("network-ns", "pending", testutil.WithPhase(object.PhasePending)))
	_, err = e.DetectBondSupport(context.TODO(), []*resource.Pod{e.Session.Pod("network-ns", "pending")})
	assert.True(t, resource.IsTimeout(err))
}

func TestRecordBridge(t *testing.T) {
	e := newEnv(nil)
	var removed []string
	e.RecordBridge("br1_for_vxlan", func(context.Context) error {
		removed = append(removed, "br1_for_vxlan")
		return nil
	})
	e.RecordBridge("br1_for_bond", nil)
	assert.Equal(t, []string{"br1_for_vxlan", "br1_for_bond"}, e.Bridges)
	require.NoError(t, e.Teardown(context.TODO()))
	assert.Equal(t, []string{"br1_for_vxlan"}, removed)
}
