// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package e2e

import (
	"strings"
)

var busyboxPod = []byte(strings.TrimSpace(`
apiVersion: v1
kind: Pod
metadata:
  name: busybox
  labels:
    app: busybox
spec:
  containers:
  - name: busybox
    image: busybox:1.36
    command: ["sleep", "3600"]
  terminationGracePeriodSeconds: 1
`))

var vmTemplate = strings.TrimSpace(`
apiVersion: kubevirt.io/v1alpha3
kind: VirtualMachine
metadata:
  name: {{ .Name }}
  namespace: {{ .Namespace }}
spec:
  running: false
  template:
    metadata:
      labels:
        kubevirt.io/vm: {{ .Name | quote }}
    spec:
      domain:
        devices:
          disks:
          - name: containerdisk
            disk:
              bus: virtio
          - name: cloudinitdisk
            disk:
              bus: virtio
          interfaces:
          - name: default
            bridge: {}
        resources:
          requests:
            memory: {{ default "128Mi" .Memory }}
      networks:
      - name: default
        pod: {}
      volumes:
      - name: containerdisk
        containerDisk:
          image: quay.io/kubevirt/cirros-container-disk-demo
      - name: cloudinitdisk
        cloudInitNoCloud:
          userData: |
            #!/bin/sh
            echo ready
`)
