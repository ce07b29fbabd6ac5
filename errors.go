package biseek

import (
	"errors"
	"fmt"
)

// Error represents a biseek error with an error code
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("biseek: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("biseek: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode classifies biseek failures
type ErrorCode int

// Error codes
const (
	// Success indicates the operation completed successfully
	Success ErrorCode = 0

	// ErrIO indicates the file could not be opened, stat'd or read
	ErrIO ErrorCode = -1001

	// ErrAlignment indicates the file size is not a multiple of the
	// element width
	ErrAlignment ErrorCode = -1002

	// ErrEmpty indicates the file holds zero elements
	ErrEmpty ErrorCode = -1003

	// ErrAdvise indicates a mandatory access-pattern advisory was refused
	ErrAdvise ErrorCode = -1004

	// ErrRingSetup indicates the completion ring could not be initialized
	// and no fallback applied
	ErrRingSetup ErrorCode = -1005

	// ErrRingFull indicates the submission queue had no free slot for a
	// probe; the search cannot make progress
	ErrRingFull ErrorCode = -1006

	// ErrStalled indicates an entire probe round completed without a
	// single valid read, so the range can never narrow
	ErrStalled ErrorCode = -1007

	// ErrNotSupported indicates the engine or utility is unavailable on
	// this platform
	ErrNotSupported ErrorCode = -1008
)

// Error descriptions
var errorMessages = map[ErrorCode]string{
	Success:         "success",
	ErrIO:           "file access failed",
	ErrAlignment:    "file size is not a multiple of the element width",
	ErrEmpty:        "file holds no elements",
	ErrAdvise:       "access-pattern advisory refused",
	ErrRingSetup:    "completion ring initialization failed",
	ErrRingFull:     "submission queue exhausted",
	ErrStalled:      "probe round yielded no valid reads",
	ErrNotSupported: "not supported on this platform",
}

// NewError creates a new Error with the given code
func NewError(code ErrorCode) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = fmt.Sprintf("unknown error code %d", code)
	}
	return &Error{Code: code, Message: msg}
}

// WrapError creates a new Error wrapping another error
func WrapError(code ErrorCode, err error) *Error {
	e := NewError(code)
	e.Err = err
	return e
}

// Common error variables for convenience
var (
	ErrIOError           = NewError(ErrIO)
	ErrAlignmentError    = NewError(ErrAlignment)
	ErrEmptyError        = NewError(ErrEmpty)
	ErrAdviseError       = NewError(ErrAdvise)
	ErrRingSetupError    = NewError(ErrRingSetup)
	ErrRingFullError     = NewError(ErrRingFull)
	ErrStalledError      = NewError(ErrStalled)
	ErrNotSupportedError = NewError(ErrNotSupported)
)

// IsAlignment returns true if the error is ErrAlignment
func IsAlignment(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrAlignment
	}
	return false
}

// IsEmpty returns true if the error is ErrEmpty
func IsEmpty(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrEmpty
	}
	return false
}

// IsStalled returns true if the error is ErrStalled
func IsStalled(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrStalled
	}
	return false
}

// IsNotSupported returns true if the error is ErrNotSupported
func IsNotSupported(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrNotSupported
	}
	return false
}

// IsSetup returns true for errors that abort a search before any probing
// starts (open/stat/validation/advisory/ring initialization)
func IsSetup(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case ErrIO, ErrAlignment, ErrEmpty, ErrAdvise, ErrRingSetup:
			return true
		}
	}
	return false
}

// Code returns the error code from an error, or ErrIO if not a biseek error
func Code(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrIO
}
