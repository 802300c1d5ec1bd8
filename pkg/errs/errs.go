// Package errs defines the error taxonomy shared by the notefold client
// packages. Callers classify failures with errors.Is against the sentinels
// below; the remote server message, when one exists, travels in a
// *RemoteError wrapped underneath.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected client-side before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated marks a data operation attempted with no active session.
	ErrUnauthenticated = errors.New("no active session")
	// ErrInvalidCredentials marks a sign-in rejected by the remote auth service.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBusy marks a credential operation rejected because another one is
	// still in flight. Busy rejections are immediate, never queued.
	ErrBusy = errors.New("another credential operation is in flight")
	// ErrFetchFailed marks a failed remote read; local state is unchanged.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrWriteFailed marks a failed remote write; local state is unchanged.
	ErrWriteFailed = errors.New("write failed")
)

// ValidationError reports which field failed client-side validation and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationError for a single field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError carries the structured error body returned by the remote
// service, preserved so presentation can show the underlying message.
type RemoteError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}
