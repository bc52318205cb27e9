// Package errors provides error wrapping utilities and the error kinds
// surfaced by the exporter pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Kind classifies a pipeline failure. Kinds double as sentinel errors so
// callers can match them with errors.Is.
type Kind string

const (
	MissingRequiredOption Kind = "missing_required_option"
	InvalidOptionValue    Kind = "invalid_option_value"
	ToolInvocationError   Kind = "tool_invocation_error"
	LaunchError           Kind = "launch_error"
	ConflictError         Kind = "conflict_error"
	InjectionError        Kind = "injection_error"
	InjectionTimeout      Kind = "injection_timeout"
	PathError             Kind = "path_error"
)

func (k Kind) Error() string { return string(k) }

// Error is a classified pipeline error. Stage is filled in by the
// orchestrator when the failure surfaces from a stage.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	s := e.Msg
	if e.Stage != "" {
		s = e.Stage + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against the error's Kind, so that
// errors.Is(err, errors.InjectionTimeout) works anywhere on the chain.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapKind classifies an underlying error.
func WrapKind(err error, kind Kind, context string) *Error {
	return &Error{Kind: kind, Msg: context, Err: err}
}

// WithStage attaches the stage name to a classified error, or wraps an
// unclassified one so the report still names the stage.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Stage == "" {
			e.Stage = stage
		}
		return err
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// KindOf returns the Kind of a classified error, or "" for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
