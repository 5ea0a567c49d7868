// Package dberrors defines the error taxonomy shared across karu's storage
// engine packages. Every exported error carries one of a small set of codes
// so callers can branch on failure kind with errors.Is/errors.As instead of
// matching message strings.
package dberrors

import "errors"

// Code categorizes why an operation failed.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeIoError         Code = "IO_ERROR"
	CodeShortRead       Code = "SHORT_READ"
	CodeInternal        Code = "INTERNAL"
)

// Error wraps a cause with a Code and a human-readable message. It
// implements Unwrap so errors.Is/errors.As see through to the cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, dberrors.ErrNotFound) match any *Error with the
// same Code, not just a pointer-identical sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// Sentinels for use with errors.Is. Their Cause is nil; compare only on
// Code via the Is method above.
var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "key not found"}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrIoError         = &Error{Code: CodeIoError, Message: "i/o error"}
	ErrShortRead       = &Error{Code: CodeShortRead, Message: "short read"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound builds a NotFound error with context.
func NotFound(msg string) *Error { return newErr(CodeNotFound, msg, nil) }

// InvalidArgument builds an InvalidArgument error with context.
func InvalidArgument(msg string) *Error { return newErr(CodeInvalidArgument, msg, nil) }

// IoError wraps an underlying I/O failure.
func IoError(msg string, cause error) *Error { return newErr(CodeIoError, msg, cause) }

// ShortRead builds a ShortRead error with context.
func ShortRead(msg string) *Error { return newErr(CodeShortRead, msg, nil) }

// Internal builds an Internal invariant-violation error.
func Internal(msg string) *Error { return newErr(CodeInternal, msg, nil) }

// GetCode extracts the Code from err, or CodeInternal if err isn't one of
// ours.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
