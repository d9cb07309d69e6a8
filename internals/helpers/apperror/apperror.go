package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindSignature    Kind = "signature"
	KindUpstream     Kind = "upstream"
	KindInternal     Kind = "internal"
)

// Business error codes
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeUpstreamTemporary = "UPSTREAM_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type every service returns to the HTTP layer.
type AppError struct {
	Kind      Kind
	Code      string
	Message   string
	Details   []FieldError
	Retryable bool
	Err       error // internal cause, never sent outside development
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized, KindSignature:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		if e.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FieldMap groups details by field, the shape used in JSON responses.
func (e *AppError) FieldMap() map[string][]string {
	if len(e.Details) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e.Details))
	for _, d := range e.Details {
		out[d.Field] = append(out[d.Field], d.Message)
	}
	return out
}

func Validation(details ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeValidation, Message: "validation failed", Details: details}
}

// ValidationMsg builds a validation error with a single field.
func ValidationMsg(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Message: message,
		Details: []FieldError{{Field: field, Message: message}},
	}
}

func NotFound(message string) *AppError {
	if message == "" {
		message = "resource not found"
	}
	return &AppError{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func Conflict(message string) *AppError {
	if message == "" {
		message = "resource already exists"
	}
	return &AppError{Kind: KindConflict, Code: CodeConflict, Message: message}
}

// StateConflict is a conflict caused by the current state of an entity.
func StateConflict(message string) *AppError {
	if message == "" {
		message = "current state does not allow operation"
	}
	return &AppError{Kind: KindConflict, Code: CodeStateConflict, Message: message}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

func Signature(message string) *AppError {
	if message == "" {
		message = "invalid signature"
	}
	return &AppError{Kind: KindSignature, Code: CodeInvalidSignature, Message: message}
}

// Upstream wraps a failure of an external dependency. Retryable marks an
// unknown outcome (timeout, 5xx) as opposed to a definitive decline.
func Upstream(message string, retryable bool, err error) *AppError {
	if message == "" {
		message = "external dependency failure"
	}
	code := CodeUpstream
	if retryable {
		code = CodeUpstreamTemporary
	}
	return &AppError{Kind: KindUpstream, Code: code, Message: message, Retryable: retryable, Err: err}
}

func Internal(message string, err error) *AppError {
	if message == "" {
		message = "internal error"
	}
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: message, Err: err}
}

// As extracts an *AppError from the chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

// From normalizes any error into an *AppError; unknown errors become internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return Internal("", err)
}
