// Package failure defines the closed set of typed failures the engine returns
// across component boundaries. Only the command layer turns them into exit
// codes and messages.
package failure

import (
	"errors"
	"fmt"
)

// Code identifies a failure category. Codes are stable and safe to compare in tests.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNetwork            Code = "NETWORK"
	CodeMissingEntitlement Code = "MISSING_ENTITLEMENT"
	CodeDirectoryNotEmpty  Code = "DIRECTORY_NOT_EMPTY"
	CodeUnknownTemplate    Code = "UNKNOWN_TEMPLATE"
	CodeConfiguration      Code = "CONFIGURATION"
	CodeNotInstalled       Code = "NOT_INSTALLED"
	CodeNoLatestVersion    Code = "NO_LATEST_VERSION"
	CodeArchive            Code = "ARCHIVE"
)

// Error is a coded failure with optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches any *Error carrying the same code, so sentinel values such as
// ErrDirectoryNotEmpty work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithDetail attaches a key/value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns nil when err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Wrapped: err}
}

func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code Code) bool {
	var fe *Error
	for err != nil {
		if errors.As(err, &fe) {
			if fe.Code == code {
				return true
			}
			err = fe.Wrapped
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}

// Sentinels for errors.Is checks.
var (
	ErrNetwork            = New(CodeNetwork, "network failure")
	ErrMissingEntitlement = New(CodeMissingEntitlement, "no entitlement token available")
	ErrDirectoryNotEmpty  = New(CodeDirectoryNotEmpty, "directory is not empty")
	ErrUnknownTemplate    = New(CodeUnknownTemplate, "unknown template")
	ErrConfiguration      = New(CodeConfiguration, "configuration could not be parsed")
	ErrNotInstalled       = New(CodeNotInstalled, "not installed")
	ErrNoLatestVersion    = New(CodeNoLatestVersion, "no latest version known")
)
