// Package apperror defines the error taxonomy returned by HTTP handlers and
// the single JSON envelope every failure is rendered with.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independently of its HTTP status.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindUpstream       Kind = "upstream"
	KindInternal       Kind = "internal"
)

// Credential failure codes shared by the verifiers.
const (
	CodeMissingCredential   = "MissingCredential"
	CodeMalformedCredential = "MalformedCredential"
	CodeInvalidCredential   = "InvalidCredential"
)

// Error is a client-facing failure with a stable code.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns a copy of e carrying details in the response body.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Validation is a 400 for malformed or missing input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Code: "validation_error", Message: message}
}

// Unprocessable is a 422 for a body that fails schema validation.
func Unprocessable(message string, issues any) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Code: "validation_error", Message: message, Details: issues}
}

// Unauthorized is a 401 with a credential failure code.
func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindAuthentication, Status: http.StatusUnauthorized, Code: code, Message: message}
}

// NotFound is a 404 for an absent resource or one owned by someone else.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Code: "not_found", Message: message}
}

// Conflict reports a duplicate resource. It is rendered as 400.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusBadRequest, Code: "already_exists", Message: message}
}

// Upstream wraps a third-party provider failure.
func Upstream(status int, code, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Status: status, Code: code, Message: message, Err: err}
}

// Internal is a 500 that never exposes its cause to the client.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Body is the error half of the response envelope.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the JSON shape of every error response.
type Envelope struct {
	Success bool `json:"success"`
	Error   Body `json:"error"`
}

// EnvelopeFor renders e as a response body.
func EnvelopeFor(e *Error) Envelope {
	return Envelope{Error: Body{Code: e.Code, Message: e.Message, Details: e.Details}}
}
