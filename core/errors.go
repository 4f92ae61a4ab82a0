// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kinds of fatal errors. Every error the renderer returns carries
// exactly one of them, test with errors.Is from either the standard
// library or cockroachdb/errors.
var (
	ErrInstanceCreation  = errors.New("instance creation failed")
	ErrNoSuitableAdapter = errors.New("no suitable adapter")
	ErrDeviceCreation    = errors.New("device creation failed")
	ErrResourceCreation  = errors.New("resource creation failed")
	ErrPipelineCreation  = errors.New("pipeline creation failed")
	ErrSubmission        = errors.New("queue operation failed")
)

// Usage contract violations
var (
	ErrNotInitialized     = errors.New("renderer is not initialized")
	ErrAlreadyInitialized = errors.New("renderer is already initialized")
	ErrShutdown           = errors.New("renderer is shut down")
)

var kinds = []error{
	ErrInstanceCreation,
	ErrNoSuitableAdapter,
	ErrDeviceCreation,
	ErrResourceCreation,
	ErrPipelineCreation,
	ErrSubmission,
	ErrNotInitialized,
	ErrAlreadyInitialized,
	ErrShutdown,
}

// kindError tags a cause with its kind. The kind matches through Is for
// the standard library and through the mark for cockroachdb/errors, the
// cause stays reachable through Unwrap.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// KindOf returns the kind the error carries, or nil
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsUsageError reports if the error is a programming error by the caller
func IsUsageError(err error) bool {
	return errors.IsAny(err, ErrNotInitialized, ErrAlreadyInitialized, ErrShutdown)
}

// fail wraps a driver error with the failing call and tags it with its kind
func fail(kind, err error, call string) error {
	return &kindError{kind: kind, cause: errors.Mark(errors.Wrap(err, call), kind)}
}

// failf creates an error of the given kind without an underlying cause
func failf(kind error, format string, args ...interface{}) error {
	return &kindError{kind: kind, cause: errors.Mark(errors.Newf(format, args...), kind)}
}

// misuse reports a usage contract violation
func misuse(kind error, call string) error {
	return errors.WithStack(errors.Wrap(kind, call))
}
