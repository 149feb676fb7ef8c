// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/template"

	cmdutil "k8s.io/kubectl/pkg/cmd/util"
	"sigs.k8s.io/virt-harness/pkg/backend"
	"sigs.k8s.io/virt-harness/pkg/resource"
)

const (
	DefaultErrorExitCode     = 1
	UnavailableErrorExitCode = 2
	TimeoutErrorExitCode     = 3
)

var errorMsgForType map[reflect.Type]string
var statusCodeForType map[reflect.Type]int

//nolint:gochecknoinits
func init() {
	errorMsgForType = make(map[reflect.Type]string)
	errorMsgForType[reflect.TypeOf(backend.UnavailableError{})] = `
Cluster unavailable: {{ .err.Reason }}.

Point {{.cmdNameBase}} at a reachable cluster with --kubeconfig or the
KUBECONFIG environment variable.
{{- if .err.Err }}

Cause: {{ .err.Err }}
{{- end }}
`

	errorMsgForType[reflect.TypeOf(resource.TimeoutError{})] = `
Timeout after {{printf "%.0f" .err.Timeout.Seconds}} seconds waiting for {{ .err.Identity }} to be {{ .err.Condition }}.
`

	errorMsgForType[reflect.TypeOf(backend.AlreadyExistsError{})] = `
{{ .err.Identity }} already exists.
`

	errorMsgForType[reflect.TypeOf(backend.InvalidDocumentError{})] = `
Invalid document for {{ .err.Identity }}: {{ .err.Reason }}.
{{- if .err.Err }}

Cause: {{ .err.Err }}
{{- end }}
`

	errorMsgForType[reflect.TypeOf(resource.CommandError{})] = `
Command failed: {{ .err.Command }}
{{- if .err.Output }}

{{ .err.Output }}
{{- end }}
`

	statusCodeForType = make(map[reflect.Type]int)
	statusCodeForType[reflect.TypeOf(backend.UnavailableError{})] = UnavailableErrorExitCode
	statusCodeForType[reflect.TypeOf(resource.TimeoutError{})] = TimeoutErrorExitCode
}

// CheckErr looks up the appropriate error message and exit status for known
// errors. It will print the information to the provided io.Writer. If we
// don't know the error, it delegates to the error handling in cmdutil.
func CheckErr(w io.Writer, err error, cmdNameBase string) {
	if err == nil {
		return
	}
	errText, found := textForError(err, cmdNameBase)
	if found {
		exitStatus := findErrExitCode(err)
		if len(errText) > 0 {
			if !strings.HasSuffix(errText, "\n") {
				errText += "\n"
			}
			fmt.Fprint(w, errText)
		}
		os.Exit(exitStatus)
	}

	cmdutil.CheckErr(err)
}

// textForError looks up the error message based on the type of the
// first known error in the chain.
func textForError(baseErr error, cmdNameBase string) (string, bool) {
	knownErr, errType, found := findKnownErr(baseErr)
	if !found {
		return "", false
	}
	tmplText := errorMsgForType[errType]

	tmpl, err := template.New("errMsg").Parse(tmplText)
	if err != nil {
		// Just return false here instead of the error. It will just
		// mean a less informative error message and we rather show the
		// original error.
		return "", false
	}
	var b bytes.Buffer
	err = tmpl.Execute(&b, map[string]interface{}{
		"cmdNameBase": cmdNameBase,
		"err":         knownErr,
	})
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(b.String()), true
}

// findKnownErr walks the wrap chain and returns the first error with a
// registered message.
func findKnownErr(err error) (error, reflect.Type, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		errType, found := findErrType(e)
		if !found {
			continue
		}
		if _, found := errorMsgForType[errType]; found {
			return e, errType, true
		}
	}
	return nil, nil, false
}

// findErrType finds the type of the error. It returns the real type in the
// event the error is actually a pointer to a type.
func findErrType(err error) (reflect.Type, bool) {
	switch reflect.ValueOf(err).Kind() {
	case reflect.Ptr:
		// If the value of the interface is a pointer, we use the type
		// of the real value.
		return reflect.ValueOf(err).Elem().Type(), true
	case reflect.Struct:
		return reflect.TypeOf(err), true
	default:
		return nil, false
	}
}

// findErrExitCode looks up if there is a defined error code for the
// first known error in the chain.
func findErrExitCode(err error) int {
	_, errType, found := findKnownErr(err)
	if !found {
		return DefaultErrorExitCode
	}
	if exitStatus, found := statusCodeForType[errType]; found {
		return exitStatus
	}
	return DefaultErrorExitCode
}
