// Copyright 2024 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	utilnet "k8s.io/apimachinery/pkg/util/net"
	"sigs.k8s.io/virt-harness/pkg/object"
)

// NotFoundError is returned when deleting a resource that does not
// exist. Handles treat it as success.
type NotFoundError struct {
	Identity object.ResourceIdentity
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Identity)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// AlreadyExistsError is returned when creating a resource whose identity
// is already taken.
type AlreadyExistsError struct {
	Identity object.ResourceIdentity
	Err      error
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Identity)
}

func (e *AlreadyExistsError) Unwrap() error {
	return e.Err
}

// InvalidDocumentError is returned when a document is missing required
// metadata or is rejected by the server as invalid.
type InvalidDocumentError struct {
	Identity object.ResourceIdentity
	Reason   string
	Err      error
}

func (e *InvalidDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid document for %s: %s: %v", e.Identity, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid document for %s: %s", e.Identity, e.Reason)
}

func (e *InvalidDocumentError) Unwrap() error {
	return e.Err
}

// UnavailableError is returned when the backend cannot be reached or
// rejects the credentials. It is not retried by this package.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("backend unavailable: %s", e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAlreadyExists returns true if err is, or wraps, an *AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

// IsInvalid returns true if err is, or wraps, an *InvalidDocumentError.
func IsInvalid(err error) bool {
	var target *InvalidDocumentError
	return errors.As(err, &target)
}

// IsUnavailable returns true if err is, or wraps, an *UnavailableError.
func IsUnavailable(err error) bool {
	var target *UnavailableError
	return errors.As(err, &target)
}

// translateError maps API server errors onto the backend error taxonomy.
// Errors that fit no category are returned unchanged.
func translateError(id object.ResourceIdentity, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case apierrors.IsNotFound(err):
		return &NotFoundError{Identity: id, Err: err}
	case apierrors.IsAlreadyExists(err):
		return &AlreadyExistsError{Identity: id, Err: err}
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return &InvalidDocumentError{Identity: id, Reason: "rejected by server", Err: err}
	case isUnavailable(err):
		return &UnavailableError{Reason: fmt.Sprintf("request for %s failed", id), Err: err}
	case meta.IsNoMatchError(err):
		return fmt.Errorf("resource type of %s is not served: %w", id, err)
	}
	return err
}

func isUnavailable(err error) bool {
	return apierrors.IsServiceUnavailable(err) ||
		apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsUnauthorized(err) ||
		utilnet.IsConnectionRefused(err) ||
		utilnet.IsConnectionReset(err) ||
		utilnet.IsProbableEOF(err)
}
