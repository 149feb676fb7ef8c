// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

// Kind is a resource type addressed on the command line.
type Kind struct {
	APIVersion    string
	Kind          string
	ClusterScoped bool
}

var kindAliases = map[string]Kind{}

func init() {
	register := func(k Kind, aliases ...string) {
		for _, a := range aliases {
			kindAliases[a] = k
		}
	}
	register(Kind{APIVersion: object.APIVersionV1, Kind: object.KindNamespace, ClusterScoped: true},
		"namespace", "namespaces", "ns")
	register(Kind{APIVersion: object.APIVersionV1, Kind: object.KindNode, ClusterScoped: true},
		"node", "nodes", "no")
	register(Kind{APIVersion: object.APIVersionV1, Kind: object.KindPod},
		"pod", "pods", "po")
	register(Kind{APIVersion: object.KubevirtAPIVersion, Kind: object.KindVirtualMachine},
		"virtualmachine", "virtualmachines", "vm", "vms")
	register(Kind{APIVersion: object.KubevirtAPIVersion, Kind: object.KindVirtualMachineInstance},
		"virtualmachineinstance", "virtualmachineinstances", "vmi", "vmis")
}

// KindNames lists the accepted kind aliases.
func KindNames() []string {
	names := make([]string, 0, len(kindAliases))
	for n := range kindAliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveKind maps a kind alias to its type. With an explicit apiVersion
// any kind name is accepted as is, and the apiVersion overrides the one of
// a known alias.
func ResolveKind(name, apiVersion string) (Kind, error) {
	if k, found := kindAliases[strings.ToLower(name)]; found {
		if apiVersion != "" {
			k.APIVersion = apiVersion
		}
		return k, nil
	}
	if apiVersion == "" {
		return Kind{}, fmt.Errorf("unknown kind %q: use one of %s, or pass --api-version",
			name, strings.Join(KindNames(), ", "))
	}
	if _, err := schema.ParseGroupVersion(apiVersion); err != nil {
		return Kind{}, err
	}
	return Kind{APIVersion: apiVersion, Kind: name}, nil
}

// Resource returns the handle of the named resource, specialized for the
// kinds the harness knows.
func Resource(s *config.Session, k Kind, namespace, name string) (resource.Resource, error) {
	if k.ClusterScoped {
		namespace = ""
	}
	if k.APIVersion == object.KubevirtAPIVersion {
		switch k.Kind {
		case object.KindVirtualMachine:
			return s.VirtualMachine(namespace, name), nil
		case object.KindVirtualMachineInstance:
			return s.VirtualMachineInstance(namespace, name), nil
		}
	}
	if k.APIVersion == object.APIVersionV1 {
		switch k.Kind {
		case object.KindNamespace:
			return s.Namespace(name), nil
		case object.KindNode:
			return s.Node(name), nil
		case object.KindPod:
			return s.Pod(namespace, name), nil
		}
	}
	return s.Handle(k.APIVersion, k.Kind, namespace, name)
}

// ResourceFor resolves the kind and builds the handle of the named
// resource in the command namespace.
func ResourceFor(ctx context.Context, f Factory, kind, apiVersion, name string) (resource.Resource, error) {
	k, err := ResolveKind(kind, apiVersion)
	if err != nil {
		return nil, err
	}
	ns, err := f.Namespace()
	if err != nil {
		return nil, err
	}
	s, err := f.Session(ctx)
	if err != nil {
		return nil, err
	}
	return Resource(s, k, ns, name)
}
