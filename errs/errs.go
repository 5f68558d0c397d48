// Package errs defines the error taxonomy shared by the load controller and
// the benchmark harness. Every error carries a kind, the operation that
// failed and, for storage failures, the collaborator error as its cause.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should treat it.
type Kind string

const (
	// KindConfiguration means the run cannot start, e.g. nothing to benchmark.
	KindConfiguration Kind = "CONFIGURATION"
	// KindStorage wraps any failure reported by the storage collaborator.
	KindStorage Kind = "STORAGE"
	// KindAggregation flags a broken invariant while collecting samples.
	KindAggregation Kind = "AGGREGATION"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrAggregation   = &Error{Kind: KindAggregation}
)

// Error is the structured error returned by the core packages.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Op == "" {
		return fmt.Sprintf("[%s] %s", e.Kind, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Configuration reports a run that cannot start.
func Configuration(op, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a collaborator failure. A nil cause yields nil so call sites
// can wrap unconditionally.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) && e.Kind == KindStorage {
		msg := e.Op
		if e.Message != "" {
			msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
		}
		return &Error{Kind: KindStorage, Op: op, Message: msg, Cause: e.Cause}
	}
	return &Error{Kind: KindStorage, Op: op, Cause: cause}
}

// Aggregation reports an invariant violation in sample collection.
func Aggregation(op, format string, args ...any) *Error {
	return &Error{Kind: KindAggregation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
