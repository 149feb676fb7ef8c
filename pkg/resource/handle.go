// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package resource binds resource identities to backend operations.
//
// A Handle addresses one named resource of one kind and offers reads,
// create, idempotent delete and a family of waits. Every wait runs on
// its own sampler, so waits are bounded by their timeout and never
// return an error: an unsatisfied wait is reported as false. Transient
// conditions such as a resource that does not exist yet, or a status
// field that has not been populated, are treated as "not yet" while
// waiting.
//
// The kind specific handles (Namespace, Node, Pod, VirtualMachine and
// VirtualMachineInstance) embed *Handle and add the operations test
// fixtures need for that kind.
package resource

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/exec"
	"sigs.k8s.io/virt-harness/pkg/object"
	"sigs.k8s.io/virt-harness/pkg/sampler"
)

// Resource is the operation surface shared by every handle.
type Resource interface {
	Identity() object.ResourceIdentity
	Get(ctx context.Context) (*unstructured.Unstructured, error)
	List(ctx context.Context, opts backend.ListOptions) ([]unstructured.Unstructured, error)
	Create(ctx context.Context, doc *unstructured.Unstructured, opts CreateOptions) error
	Delete(ctx context.Context, opts DeleteOptions) error
	Wait(ctx context.Context, opts WaitOptions) bool
	WaitUntilGone(ctx context.Context, opts WaitOptions) bool
	WaitForStatus(ctx context.Context, status string, opts WaitOptions) bool
}

var _ Resource = &Handle{}

// Handle is the generic Resource implementation.
type Handle struct {
	id       object.ResourceIdentity
	backend  backend.Backend
	clock    clock.Clock
	runner   exec.Runner
	kubectl  string
	virtctl  string
	defaults waitBounds
}

// New returns a handle for the given identity. The identity is not
// validated; use NewHandle for identities built from user input.
func New(b backend.Backend, id object.ResourceIdentity, opts ...Option) *Handle {
	h := &Handle{
		id:       id,
		backend:  b,
		clock:    clock.RealClock{},
		runner:   exec.NewShellRunner(),
		kubectl:  DefaultKubectl,
		virtctl:  DefaultVirtctl,
		defaults: waitBounds{Timeout: DefaultTimeout, Interval: DefaultInterval},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewHandle validates the identity and returns a handle for it.
func NewHandle(b backend.Backend, apiVersion, kind, namespace, name string, opts ...Option) (*Handle, error) {
	id, err := object.NewIdentity(apiVersion, kind, namespace, name)
	if err != nil {
		return nil, err
	}
	return New(b, id, opts...), nil
}

// Identity returns the identity this handle addresses.
func (h *Handle) Identity() object.ResourceIdentity {
	return h.id
}

func (h *Handle) Name() string {
	return h.id.Name
}

func (h *Handle) Namespace() string {
	return h.id.Namespace
}

// Backend returns the backend the handle talks to.
func (h *Handle) Backend() backend.Backend {
	return h.backend
}

// derive returns a handle of another kind sharing this handle's
// backend and options.
func (h *Handle) derive(id object.ResourceIdentity) *Handle {
	c := *h
	c.id = id
	return &c
}

// Get returns the current document of the resource, or an empty
// document when no resource with the handle name exists in the handle
// namespace. Backend errors are returned as is.
func (h *Handle) Get(ctx context.Context) (*unstructured.Unstructured, error) {
	if h.id.Name == "" {
		return object.Empty(), nil
	}
	docs, err := h.List(ctx, backend.ListOptions{})
	if err != nil {
		return nil, err
	}
	return object.FindByName(docs, h.id.Name), nil
}

// List returns the documents of the handle kind. An empty namespace in
// opts is replaced by the handle namespace.
func (h *Handle) List(ctx context.Context, opts backend.ListOptions) ([]unstructured.Unstructured, error) {
	if opts.Namespace == "" {
		opts.Namespace = h.id.Namespace
	}
	return h.backend.List(ctx, h.id.APIVersion, h.id.Kind, opts)
}

// ListNames is List projected onto metadata.name.
func (h *Handle) ListNames(ctx context.Context, opts backend.ListOptions) ([]string, error) {
	docs, err := h.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return backend.NamesOnly(docs), nil
}

// Exists reports whether the resource is currently present.
func (h *Handle) Exists(ctx context.Context) (bool, error) {
	u, err := h.Get(ctx)
	if err != nil {
		return false, err
	}
	return !object.IsEmpty(u), nil
}

// Status returns status.phase. A resource without a phase, including an
// absent resource, yields a *object.FieldMissingError.
func (h *Handle) Status(ctx context.Context) (string, error) {
	return h.stringField(ctx, "status", "phase")
}

func (h *Handle) stringField(ctx context.Context, fields ...string) (string, error) {
	u, err := h.Get(ctx)
	if err != nil {
		return "", err
	}
	if object.IsEmpty(u) {
		return "", h.missing(fields...)
	}
	return object.NestedString(u, fields...)
}

// Create creates the resource. A nil document is replaced by a minimal
// skeleton built from the handle identity; a document without name or
// namespace inherits them from the handle. Backend failures are returned
// immediately. With opts.Wait set, Create blocks until the resource is
// observed and returns a *TimeoutError if it never is.
func (h *Handle) Create(ctx context.Context, doc *unstructured.Unstructured, opts CreateOptions) error {
	if doc == nil {
		doc = h.id.Skeleton()
	} else {
		doc = doc.DeepCopy()
		if doc.GetName() == "" && doc.GetGenerateName() == "" {
			doc.SetName(h.id.Name)
		}
	}
	klog.V(2).Infof("create %s", h.id)
	created, err := h.backend.Create(ctx, h.id.APIVersion, h.id.Kind, h.id.Namespace, doc)
	if err != nil {
		return err
	}
	if !opts.Wait {
		return nil
	}
	target := h
	if id, err := object.IdentityFromUnstructured(created); err == nil && !id.Equals(h.id) {
		target = h.derive(id)
	}
	if !target.Wait(ctx, opts.WaitOptions) {
		return &TimeoutError{Identity: target.id, Condition: "present", Timeout: h.resolve(opts.WaitOptions).Timeout}
	}
	return nil
}

// Delete deletes the resource. Deleting an absent resource succeeds.
// With opts.Wait set, Delete blocks until the resource is gone and
// returns a *TimeoutError if it never goes.
func (h *Handle) Delete(ctx context.Context, opts DeleteOptions) error {
	klog.V(2).Infof("delete %s", h.id)
	err := h.backend.Delete(ctx, h.id.APIVersion, h.id.Kind, h.id.Namespace, h.id.Name)
	if err != nil {
		if !backend.IsNotFound(err) {
			return err
		}
		klog.V(2).Infof("%s already gone", h.id)
	}
	if !opts.Wait {
		return nil
	}
	if !h.WaitUntilGone(ctx, opts.WaitOptions) {
		return &TimeoutError{Identity: h.id, Condition: "gone", Timeout: h.resolve(opts.WaitOptions).Timeout}
	}
	return nil
}

// Wait blocks until the resource exists.
func (h *Handle) Wait(ctx context.Context, opts WaitOptions) bool {
	return h.waitForDocument(ctx, "present", opts, func(u *unstructured.Unstructured) bool {
		return !object.IsEmpty(u)
	})
}

// WaitUntilGone blocks until the resource no longer exists.
func (h *Handle) WaitUntilGone(ctx context.Context, opts WaitOptions) bool {
	return h.waitForDocument(ctx, "gone", opts, object.IsEmpty)
}

// WaitForStatus blocks until status.phase equals status.
func (h *Handle) WaitForStatus(ctx context.Context, status string, opts WaitOptions) bool {
	s, ok := newSampler(h, "status "+status, opts, func() (string, error) {
		return h.Status(ctx)
	})
	if !ok {
		return false
	}
	return sampler.WaitForFuncStatus(s, status)
}

// WaitForField blocks until the JSONPath expression evaluates to exactly
// one value equal to expected.
func (h *Handle) WaitForField(ctx context.Context, expression, expected string, opts WaitOptions) bool {
	s, ok := newSampler(h, fmt.Sprintf("%s=%s", expression, expected), opts, func() (bool, error) {
		u, err := h.Get(ctx)
		if err != nil {
			return false, err
		}
		return object.FieldEquals(u, expression, expected)
	})
	if !ok {
		return false
	}
	return sampler.WaitForFuncStatus(s, true)
}

// Samples returns a sampler over Get for callers that test richer
// conditions in iterator mode.
func (h *Handle) Samples(ctx context.Context, opts WaitOptions) (*sampler.Sampler[*unstructured.Unstructured], error) {
	b := h.resolve(opts)
	return sampler.New(b.Timeout, b.Interval, func() (*unstructured.Unstructured, error) {
		return h.Get(ctx)
	}, h.samplerOptions("samples")...)
}

func (h *Handle) waitForDocument(ctx context.Context, condition string, opts WaitOptions, cond func(*unstructured.Unstructured) bool) bool {
	s, ok := newSampler(h, condition, opts, func() (*unstructured.Unstructured, error) {
		return h.Get(ctx)
	})
	if !ok {
		return false
	}
	return s.WaitFor(cond)
}

func (h *Handle) samplerOptions(condition string) []sampler.Option {
	return []sampler.Option{
		sampler.WithClock(h.clock),
		sampler.WithName(fmt.Sprintf("wait for %s %s", h.id, condition)),
	}
}

// newSampler builds a sampler for a boolean wait. Invalid wait options
// are logged and reported as an unsatisfied wait.
func newSampler[T any](h *Handle, condition string, opts WaitOptions, probe func() (T, error)) (*sampler.Sampler[T], bool) {
	b := h.resolve(opts)
	klog.V(3).Infof("waiting up to %s for %s to be %s", b.Timeout, h.id, condition)
	s, err := sampler.New(b.Timeout, b.Interval, probe, h.samplerOptions(condition)...)
	if err != nil {
		klog.Errorf("cannot wait for %s: %v", h.id, err)
		return nil, false
	}
	return s, true
}

// run executes a side-channel command through the handle runner.
func (h *Handle) run(command string) (bool, string) {
	return h.runner.Run(command)
}
