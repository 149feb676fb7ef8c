// Copyright 2021 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	extensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	CoreNamespace   = corev1.SchemeGroupVersion.WithKind(KindNamespace).GroupKind()
	ExtensionsCRD   = ExtensionsV1CRD.GroupKind()
	ExtensionsV1CRD = extensionsv1.SchemeGroupVersion.WithKind("CustomResourceDefinition")
)

// IsKindNamespace returns true if u is a core Namespace of any version.
func IsKindNamespace(u *unstructured.Unstructured) bool {
	if u == nil {
		return false
	}
	return u.GroupVersionKind().GroupKind() == CoreNamespace
}

// IsCRD returns true if u is a CustomResourceDefinition.
func IsCRD(u *unstructured.Unstructured) bool {
	if u == nil {
		return false
	}
	return u.GroupVersionKind().GroupKind() == ExtensionsCRD
}

// CRDGroupKind returns the GroupKind defined by the CRD u.
func CRDGroupKind(u *unstructured.Unstructured) (schema.GroupKind, bool) {
	if !IsCRD(u) {
		return schema.GroupKind{}, false
	}
	group, found, err := unstructured.NestedString(u.Object, "spec", "group")
	if !found || err != nil {
		return schema.GroupKind{}, false
	}
	kind, found, err := unstructured.NestedString(u.Object, "spec", "names", "kind")
	if !found || err != nil {
		return schema.GroupKind{}, false
	}
	return schema.GroupKind{Group: group, Kind: kind}, true
}

// UnknownTypeError is returned when neither the cluster nor the given
// CRDs know the scope of a kind.
type UnknownTypeError struct {
	GroupKind schema.GroupKind
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown resource type: %q", e.GroupKind.String())
}

// LookupScope returns the scope of the kind of u. The mapper is asked
// first; kinds it does not serve are looked up among crds, which lets a
// manifest carry a CRD together with its first custom resources.
func LookupScope(u *unstructured.Unstructured, crds []*unstructured.Unstructured, mapper meta.RESTMapper) (meta.RESTScope, error) {
	gk := u.GroupVersionKind().GroupKind()
	mapping, err := mapper.RESTMapping(gk)
	if err == nil {
		return mapping.Scope, nil
	}
	if !meta.IsNoMatchError(err) {
		return nil, err
	}

	for _, crd := range crds {
		if crdGK, ok := CRDGroupKind(crd); !ok || crdGK != gk {
			continue
		}
		scope, _, _ := unstructured.NestedString(crd.Object, "spec", "scope")
		switch extensionsv1.ResourceScope(scope) {
		case extensionsv1.NamespaceScoped:
			return meta.RESTScopeNamespace, nil
		case extensionsv1.ClusterScoped:
			return meta.RESTScopeRoot, nil
		default:
			return nil, fmt.Errorf("unknown scope %q for %s", scope, gk)
		}
	}
	return nil, &UnknownTypeError{GroupKind: gk}
}
