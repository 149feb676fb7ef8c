// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive
	. "github.com/onsi/gomega"    //nolint:revive
	"k8s.io/client-go/rest"
	"k8s.io/client-go/util/homedir"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/resource"
	"sigs.k8s.io/virt-harness/test/e2e/e2eutil"
)

var (
	restConfig *rest.Config
	session    *config.Session
	c          client.Client
)

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	klog.SetOutput(GinkgoWriter)
	klog.LogToStderr(false)
}

func clusterConfigured() bool {
	if os.Getenv("KUBECONFIG") != "" {
		return true
	}
	_, err := os.Stat(filepath.Join(homedir.HomeDir(), ".kube", "config"))
	return err == nil
}

var _ = BeforeSuite(func() {
	if !clusterConfigured() {
		Skip("no kubeconfig found, skipping e2e suite")
	}

	cfg, err := ctrl.GetConfig()
	Expect(err).NotTo(HaveOccurred())
	restConfig = e2eutil.WithUserAgent(cfg, "e2e")

	if e2eutil.IsFlowControlEnabled(restConfig) {
		klog.Info("server-side flow control enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), e2eutil.DefaultTimeout)
	defer cancel()
	harnessConfig := config.Default()
	// test clusters rarely label compute nodes
	harnessConfig.NodeSelector = ""
	session, err = config.NewSessionFromRESTConfig(ctx, harnessConfig, rest.CopyConfig(restConfig))
	Expect(err).NotTo(HaveOccurred())

	c, err = client.New(restConfig, client.Options{Mapper: session.Mapper})
	Expect(err).NotTo(HaveOccurred())
})

var _ = Describe("Harness", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		ns     *resource.Namespace
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		ns = e2eutil.CreateRandomNamespace(ctx, session)
	})

	AfterEach(func() {
		e2eutil.DeleteNamespace(ctx, ns)
		cancel()
	})

	Context("Namespace", func() {
		It("is observed through both clients while it exists", func() {
			obj := ns.Identity().Skeleton()
			e2eutil.AssertUnstructuredExists(ctx, c, obj)

			Eventually(func() (string, error) {
				return ns.Status(ctx)
			}).Should(Equal(object.PhaseActive))
			Expect(ns.WaitForActive(ctx, resource.Within(0, 0))).To(BeTrue())

			other := session.Namespace(e2eutil.RandomString("e2e-ns-"))
			Expect(other.Create(ctx, nil, resource.CreateOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
			Expect(other.Delete(ctx, resource.DeleteOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
			e2eutil.AssertUnstructuredDoesNotExist(ctx, c, other.Identity().Skeleton())
		})

		It("reports an existing namespace as already existing", func() {
			err := ns.Create(ctx, nil, resource.CreateOptions{})
			Expect(backend.IsAlreadyExists(err)).To(BeTrue(), "unexpected error: %v", err)
		})
	})

	Context("Node", func() {
		It("lists nodes with an internal address", func() {
			nodes, err := session.Nodes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).NotTo(BeEmpty())

			ip, err := nodes[0].InternalIP(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ip).NotTo(BeEmpty())
		})
	})

	Context("Pod", func() {
		It("runs and executes commands", func() {
			doc := e2eutil.WithNamespace(e2eutil.ManifestToUnstructured(busyboxPod), ns.Name())
			pod := session.Pod(ns.Name(), doc.GetName())

			Expect(pod.Create(ctx, doc, resource.CreateOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
			Expect(pod.WaitForRunning(ctx, e2eutil.DefaultWait)).To(BeTrue())

			nodeName, err := pod.NodeName(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodeName).NotTo(BeEmpty())

			ok, out := pod.Exec("echo hello", "")
			Expect(ok).To(BeTrue(), "exec failed: %s", out)
			Expect(out).To(ContainSubstring("hello"))

			Expect(pod.Delete(ctx, resource.DeleteOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
		})
	})

	Context("VirtualMachine", func() {
		BeforeEach(func() {
			if !session.Serves(object.KubevirtAPIVersion, object.KindVirtualMachine) {
				Skip("KubeVirt is not installed")
			}
		})

		It("starts, reports interfaces and stops", func() {
			doc := e2eutil.TemplateToUnstructured(vmTemplate, map[string]interface{}{
				"Name":      "vm-cirros",
				"Namespace": ns.Name(),
				"Memory":    "",
			})
			vm := session.VirtualMachine(ns.Name(), doc.GetName())

			Expect(vm.Create(ctx, doc, resource.CreateOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
			e2eutil.AssertUnstructuredExists(ctx, c, doc)

			Expect(vm.Start(ctx, resource.StartStopOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())

			wait := resource.Within(3*e2eutil.DefaultTimeout, e2eutil.DefaultInterval)
			ifaces, ok := vm.Instance().WaitForInterfaces(ctx, wait)
			Expect(ok).To(BeTrue(), "interfaces never reported")
			Expect(ifaces).NotTo(BeEmpty())
			Expect(ifaces[0].IP()).NotTo(BeEmpty())

			Expect(vm.Stop(ctx, resource.StartStopOptions{Wait: true, WaitOptions: e2eutil.DefaultWait})).To(Succeed())
			Expect(vm.Delete(ctx, resource.DeleteOptions{Wait: true, WaitOptions: wait})).To(Succeed())
		})
	})
})
