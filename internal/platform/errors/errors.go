// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	"context"
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the finder
// Values are stable because the ledger persists them; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeUnavailable is for transient errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeInvalidArgument is for bad input parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for option validation failures
	ErrorCodeValidation

	// ErrorCodeJSON is for JSON parsing errors
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDB is for general ledger database errors
	ErrorCodeDB

	// ErrorCodeInvalidTimeFormat is for start/end strings that cannot be resolved to a window
	ErrorCodeInvalidTimeFormat

	// ErrorCodeMalformedRepoName is for repo names without an owner/name separator
	ErrorCodeMalformedRepoName

	// ErrorCodeShardUnavailable is for archive hours that could not be fetched
	ErrorCodeShardUnavailable

	// ErrorCodeMalformedEventLine is for archive lines that fail to decode
	ErrorCodeMalformedEventLine

	// ErrorCodeStorage is for local disk failures (disk full, permission denied)
	ErrorCodeStorage
)

// String returns a short stable label used in logs, metrics and the ledger
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeUnavailable:
		return "unavailable"
	case ErrorCodeInvalidArgument:
		return "invalid_argument"
	case ErrorCodeValidation:
		return "validation"
	case ErrorCodeJSON:
		return "json"
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodeDB:
		return "db"
	case ErrorCodeInvalidTimeFormat:
		return "invalid_time_format"
	case ErrorCodeMalformedRepoName:
		return "malformed_repo_name"
	case ErrorCodeShardUnavailable:
		return "shard_unavailable"
	case ErrorCodeMalformedEventLine:
		return "malformed_event_line"
	case ErrorCodeStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// ExitCode turns an ErrorCode into a process exit status for the CLI
func ExitCode(c ErrorCode) int {
	switch c {
	case ErrorCodeInvalidTimeFormat, ErrorCodeValidation, ErrorCodeInvalidArgument:
		return 2
	case ErrorCodeStorage:
		return 3
	default:
		return 1
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// path is optional and set for local storage failures
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
	path  string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.msg
	if e.path != "" {
		msg = fmt.Sprintf("%s (path %s)", msg, e.path)
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", msg, e.orig)
	}
	return msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Path returns the offending local path, if set
func (e *Error) Path() string { return e.path }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// PathOf returns the storage path attached anywhere in the chain
func PathOf(err error) string {
	if e, ok := As(err); ok {
		return e.path
	}
	return ""
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Storage wraps a local filesystem failure and records the offending path
func Storage(orig error, path, msg string) error {
	return &Error{code: ErrorCodeStorage, msg: msg, orig: orig, path: path}
}

// Sugar

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// InvalidTimef returns an invalid time format error
func InvalidTimef(format string, a ...any) error {
	return Newf(ErrorCodeInvalidTimeFormat, format, a...)
}

// MalformedRepof returns a malformed repo name error
func MalformedRepof(format string, a ...any) error {
	return Newf(ErrorCodeMalformedRepoName, format, a...)
}

// ShardUnavailablef returns a shard unavailable error
func ShardUnavailablef(format string, a ...any) error {
	return Newf(ErrorCodeShardUnavailable, format, a...)
}

// DBf returns a general database error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// Retry semantics

// Retryable reports whether the error is worth another attempt.
// Transient fetch failures carry ErrorCodeUnavailable; database contention is
// classified by the Postgres helpers in pg.go
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsCode(err, ErrorCodeUnavailable) {
		return true
	}
	return IsRetryable(err)
}
