package errors

import "fmt"

// ErrorCode represents a Playscribe error code.
type ErrorCode string

const (
	ErrIOFault        ErrorCode = "IO_FAULT"        // target unreadable/unwritable
	ErrDecodeFault    ErrorCode = "DECODE_FAULT"    // malformed or structurally wrong document
	ErrSpawnFault     ErrorCode = "SPAWN_FAULT"     // background execution unit could not start
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // bad parameters from a caller
	ErrBusy           ErrorCode = "BUSY"            // coordinator already running an operation
	ErrNotFound       ErrorCode = "NOT_FOUND"       // project/path not present
	ErrInternal       ErrorCode = "INTERNAL"        // unexpected internal error
)

// PlayscribeError represents a structured error with code, message, and cause.
type PlayscribeError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PlayscribeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original cause for errors.Is/As chains.
func (e *PlayscribeError) Unwrap() error {
	return e.Cause
}

// NewIOFault creates an error for an unreadable or unwritable target.
func NewIOFault(op string, cause error) *PlayscribeError {
	return &PlayscribeError{
		Code:    ErrIOFault,
		Message: fmt.Sprintf("%s %v", op, cause),
		Cause:   cause,
	}
}

// NewDecodeFault creates an error for a malformed persisted document.
func NewDecodeFault(msg string, cause error) *PlayscribeError {
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &PlayscribeError{
		Code:    ErrDecodeFault,
		Message: msg,
		Cause:   cause,
	}
}

// NewSpawnFault creates an error for a worker that could not start.
func NewSpawnFault(cause error) *PlayscribeError {
	return &PlayscribeError{
		Code:    ErrSpawnFault,
		Message: fmt.Sprintf("background worker unavailable: %v", cause),
		Cause:   cause,
	}
}

// NewInvalidRequest creates an error for invalid caller parameters.
func NewInvalidRequest(msg string) *PlayscribeError {
	return &PlayscribeError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewBusy creates an error for an operation issued while another is in flight.
func NewBusy(op string) *PlayscribeError {
	return &PlayscribeError{
		Code:    ErrBusy,
		Message: fmt.Sprintf("cannot %s: an operation is already in progress", op),
	}
}

// NewNotFound creates an error for a missing project or path.
func NewNotFound(identifier string) *PlayscribeError {
	return &PlayscribeError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *PlayscribeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PlayscribeError{
		Code:    ErrInternal,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if an error is a PlayscribeError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := err.(*PlayscribeError); ok {
		return pErr.Code == code
	}
	return false
}
