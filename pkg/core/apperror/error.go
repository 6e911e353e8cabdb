// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     apperror
// Description: Coded error type with operation and cause
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package apperror

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a classified failure of one adapter operation.
type Error struct {
	kind      Kind
	operation string
	message   string
	cause     error
	details   map[string]interface{}
}

// New creates an error of the given kind
func New(kind Kind, operation, message string) *Error {
	return &Error{
		kind:      kind,
		operation: operation,
		message:   message,
	}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, operation, format string, args ...interface{}) *Error {
	return New(kind, operation, fmt.Sprintf(format, args...))
}

// Wrap wraps cause with a kind. A nil cause yields nil.
func Wrap(cause error, kind Kind, operation, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{
		kind:      kind,
		operation: operation,
		message:   message,
		cause:     cause,
	}
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// Kind returns the error kind
func (e *Error) Kind() Kind {
	return e.kind
}

// Operation returns the operation that failed
func (e *Error) Operation() string {
	return e.operation
}

// Message returns the message without operation or cause
func (e *Error) Message() string {
	return e.message
}

// Detail returns a detail value
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.details[key]
	return v, ok
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.operation != "" {
		b.WriteString(e.operation)
		b.WriteString(": ")
	}
	b.WriteString(string(e.kind))
	if e.message != "" {
		b.WriteString(": ")
		b.WriteString(e.message)
	}
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.details[k]))
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("]")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by kind, so errors.Is(err, apperror.New(KindAuth, "", ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind
}

// KindOf returns the kind of the first *Error in err's chain. Context
// cancellation maps to KindCanceled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindUnknown
}

// IsKind reports whether err carries kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Describe renders err for a status line: "<operation> failed: <summary> (<detail>)".
func Describe(err error) string {
	if err == nil {
		return ""
	}
	kind := KindOf(err)
	var appErr *Error
	if errors.As(err, &appErr) {
		op := appErr.operation
		if op == "" {
			op = "request"
		}
		detail := appErr.message
		if detail == "" && appErr.cause != nil {
			detail = appErr.cause.Error()
		}
		if kind == KindCanceled {
			return fmt.Sprintf("%s %s", op, kind.Summary())
		}
		if detail == "" {
			return fmt.Sprintf("%s failed: %s", op, kind.Summary())
		}
		return fmt.Sprintf("%s failed: %s (%s)", op, kind.Summary(), detail)
	}
	if kind == KindCanceled {
		return "cancelled"
	}
	return err.Error()
}
