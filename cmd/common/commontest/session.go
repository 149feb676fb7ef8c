// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package commontest builds command factories over fake clusters.
package commontest

import (
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	clocktesting "k8s.io/utils/clock/testing"
	"sigs.k8s.io/virt-harness/cmd/common"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/config"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/testutil"
)

// Namespace is the command namespace of NewFactory.
const Namespace = "virt-tests"

// Recorder is a Runner that records command lines and replies with a
// fixed result.
type Recorder struct {
	Commands []string
	OK       bool
	Output   string
}

var _ exec.Runner = &Recorder{}

func (r *Recorder) Run(command string) (bool, string) {
	r.Commands = append(r.Commands, command)
	return r.OK, r.Output
}

// NewSession returns a session over a fake cluster seeded with objs. Its
// handles sleep on a fake clock.
func NewSession(runner exec.Runner, objs ...runtime.Object) *config.Session {
	mapper := testutil.NewHarnessRESTMapper()
	b := backend.NewDynamicBackend(testutil.NewFakeDynamicClient(objs...), mapper)
	s := config.NewSessionFromBackend(config.Default(), b, runner)
	s.Mapper = mapper
	s.Clock = clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return s
}

// NewFactory returns a factory over NewSession in Namespace.
func NewFactory(runner exec.Runner, objs ...runtime.Object) common.StaticFactory {
	return common.StaticFactory{S: NewSession(runner, objs...), NS: Namespace}
}
