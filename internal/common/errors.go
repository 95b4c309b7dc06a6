package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the caller-visible taxonomy. Every service
// method returns an *AppError so handlers can map it to a status code
// without inspecting backing-store error text.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindPersistence
	KindTimeout
)

// AppError carries the error kind, the failing operation name and a message
// safe to show to callers. The wrapped error is for logs only.
type AppError struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// E creates an AppError without an underlying cause.
func E(kind Kind, op, message string) *AppError {
	return &AppError{Kind: kind, Op: op, Message: message}
}

// WrapErr attaches an underlying cause. Deadline-exceeded causes are
// reclassified as timeouts regardless of the kind the caller picked.
func WrapErr(kind Kind, op, message string, err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &AppError{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to persistence.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindPersistence
}

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(kind Kind) string {
	switch kind {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthentication:
		return "UNAUTHORIZED"
	case KindAuthorization:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTimeout:
		return "TIMEOUT"
	default:
		return "SERVER_ERROR"
	}
}
