// Package fpm holds what the frequent-pattern-mining packages share: the error
// taxonomy every stage reports through.
//
// Error Taxonomy
// ==============
//
// InputError: the input path is not a readable directory, holds no files, or a
// file cannot be read. Fatal, raised before ingestion completes.
//
// ValidationError: a parameter is outside its domain (minimum support outside
// [0,1), epsilon or delta outside (0,1), ...). Fatal, raised before any
// I/O-heavy work.
//
// InvariantError: the prefix tree or its header table is inconsistent. This is
// a construction bug, never a recoverable condition, and it carries the
// offending node's item chain for diagnosis.
//
// None of these are retried. A run either completes or produces no output.
package fpm

import (
	"fmt"
	"strings"
)

// InputError reports an unusable input location.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ValidationError reports a parameter outside its accepted range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// InvariantError reports a corrupted tree. Chain lists the items met on the
// walk from the offending node towards the root.
type InvariantError struct {
	Detail string
	Chain  []string
}

func (e *InvariantError) Error() string {
	if len(e.Chain) == 0 {
		return "internal invariant violated: " + e.Detail
	}
	return fmt.Sprintf("internal invariant violated: %s (chain: %s)", e.Detail, strings.Join(e.Chain, " <- "))
}
