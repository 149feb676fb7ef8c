// Copyright 2020 The Kubernetes Authors.
// SPDX-License-Identifier: Apache-2.0

// Package printers writes resource documents in the output formats of the
// vharness commands.
package printers

import (
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/cli-runtime/pkg/printers"
	"sigs.k8s.io/virt-harness/pkg/object"
)

const (
	TablePrinter = "table"
	YAMLPrinter  = "yaml"
	JSONPrinter  = "json"
	NamePrinter  = "name"
)

func SupportedPrinters() []string {
	return []string{TablePrinter, YAMLPrinter, JSONPrinter, NamePrinter}
}

func DefaultPrinter() string {
	return TablePrinter
}

// ValidatePrinter fails for unknown output formats.
func ValidatePrinter(format string) error {
	for _, p := range SupportedPrinters() {
		if p == format {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q: use one of %v", format, SupportedPrinters())
}

// Print writes the documents to w in the requested format.
func Print(w io.Writer, format string, docs []unstructured.Unstructured) error {
	switch format {
	case TablePrinter:
		return printTable(w, docs)
	case YAMLPrinter:
		p := &printers.YAMLPrinter{}
		for i := range docs {
			if err := p.PrintObj(&docs[i], w); err != nil {
				return err
			}
		}
		return nil
	case JSONPrinter:
		if len(docs) == 1 {
			return (&printers.JSONPrinter{}).PrintObj(&docs[0], w)
		}
		list := &unstructured.UnstructuredList{
			Object: map[string]interface{}{"apiVersion": "v1", "kind": "List"},
			Items:  docs,
		}
		return (&printers.JSONPrinter{}).PrintObj(list, w)
	case NamePrinter:
		p := &printers.NamePrinter{}
		for i := range docs {
			if err := p.PrintObj(&docs[i], w); err != nil {
				return err
			}
		}
		return nil
	default:
		return ValidatePrinter(format)
	}
}

// PrintNames writes one name per line.
func PrintNames(w io.Writer, names []string) error {
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func printTable(w io.Writer, docs []unstructured.Unstructured) error {
	tw := printers.GetNewTabWriter(w)
	if _, err := fmt.Fprintln(tw, "NAMESPACE\tNAME\tKIND\tSTATUS"); err != nil {
		return err
	}
	for i := range docs {
		u := &docs[i]
		ns := u.GetNamespace()
		if ns == "" {
			ns = "<none>"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ns, u.GetName(), u.GetKind(), statusOf(u)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func statusOf(u *unstructured.Unstructured) string {
	for _, fields := range [][]string{{"status", "phase"}, {"status", "printableStatus"}} {
		if s, err := object.NestedString(u, fields...); err == nil && s != "" {
			return s
		}
	}
	return "<unknown>"
}
