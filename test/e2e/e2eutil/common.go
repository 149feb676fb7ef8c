// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package e2eutil

import (
	"context"
	"fmt"
	"time"

	"github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/flowcontrol"
	"sigs.k8s.io/virt-harness/pkg/manifest"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

const (
	DefaultTimeout  = 2 * time.Minute
	DefaultInterval = 2 * time.Second
)

// DefaultWait bounds the waits of the e2e specs.
var DefaultWait = resource.Within(DefaultTimeout, DefaultInterval)

func WithNamespace(obj *unstructured.Unstructured, namespace string) *unstructured.Unstructured {
	obj.SetNamespace(namespace)
	return obj
}

func WithNodeSelector(obj *unstructured.Unstructured, key, value string) *unstructured.Unstructured {
	selectors, found, err := unstructured.NestedMap(obj.Object, "spec", "nodeSelector")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	if !found {
		selectors = make(map[string]interface{})
	}
	selectors[key] = value
	err = unstructured.SetNestedMap(obj.Object, selectors, "spec", "nodeSelector")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return obj
}

// AssertUnstructuredExists reads obj through the controller-runtime
// client, independently of the harness backend.
func AssertUnstructuredExists(ctx context.Context, c client.Client, obj *unstructured.Unstructured) *unstructured.Unstructured {
	resultObj := &unstructured.Unstructured{}
	resultObj.SetGroupVersionKind(obj.GroupVersionKind())

	err := c.Get(ctx, types.NamespacedName{
		Namespace: obj.GetNamespace(),
		Name:      obj.GetName(),
	}, resultObj)
	gomega.Expect(err).NotTo(gomega.HaveOccurred(),
		"expected GET not to error (%s %s): %s", obj.GetKind(), obj.GetName(), err)
	return resultObj
}

func AssertUnstructuredDoesNotExist(ctx context.Context, c client.Client, obj *unstructured.Unstructured) {
	resultObj := &unstructured.Unstructured{}
	resultObj.SetGroupVersionKind(obj.GroupVersionKind())

	err := c.Get(ctx, types.NamespacedName{
		Namespace: obj.GetNamespace(),
		Name:      obj.GetName(),
	}, resultObj)
	gomega.Expect(err).To(gomega.HaveOccurred(),
		"expected GET to error (%s %s)", obj.GetKind(), obj.GetName())
	gomega.Expect(apierrors.ReasonForError(err)).To(gomega.Equal(metav1.StatusReasonNotFound),
		"expected GET to error with NotFound (%s %s): %s", obj.GetKind(), obj.GetName(), err)
}

func RandomString(prefix string) string {
	name, err := config.RandomNamespace(prefix)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return name
}

func ManifestToUnstructured(m []byte) *unstructured.Unstructured {
	docs, err := manifest.LoadBytes(m)
	if err != nil {
		panic(fmt.Errorf("failed to parse manifest yaml: %w", err))
	}
	if len(docs) != 1 {
		panic(fmt.Errorf("expected one manifest document, got %d", len(docs)))
	}
	return docs[0]
}

func TemplateToUnstructured(tmpl string, data interface{}) *unstructured.Unstructured {
	docs, err := manifest.Render(tmpl, data)
	if err != nil {
		panic(fmt.Errorf("failed to execute manifest go-template: %w", err))
	}
	if len(docs) != 1 {
		panic(fmt.Errorf("expected one manifest document, got %d", len(docs)))
	}
	return docs[0]
}

// CreateRandomNamespace creates a namespace with a random name and waits
// for it to become Active.
func CreateRandomNamespace(ctx context.Context, s *config.Session) *resource.Namespace {
	ns := s.Namespace(RandomString("e2e-test-"))
	err := ns.Create(ctx, nil, resource.CreateOptions{Wait: true, WaitOptions: DefaultWait})
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
	gomega.Expect(ns.WaitForActive(ctx, DefaultWait)).To(gomega.BeTrue(),
		"namespace %s did not become Active", ns.Name())
	return ns
}

func DeleteNamespace(ctx context.Context, ns *resource.Namespace) {
	err := ns.Delete(ctx, resource.DeleteOptions{})
	gomega.Expect(err).ToNot(gomega.HaveOccurred())
}

func IsFlowControlEnabled(config *rest.Config) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	enabled, err := flowcontrol.IsEnabled(ctx, config)
	gomega.Expect(err).ToNot(gomega.HaveOccurred())

	return enabled
}
