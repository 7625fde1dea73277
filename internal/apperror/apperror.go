package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream failure")
	ErrConstraint   = errors.New("constraint violation")
)

// ConstraintKind names the storage rule a write broke.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintOther      ConstraintKind = "other"
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message, safe to show clients
	Field   string // Optional: field causing the error
	Detail  string // Optional: server-side detail, never sent to clients
	Kind    ConstraintKind
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// NotFoundMessage is NotFound for lookups that are not keyed by id.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for a request that carries no resolved identity.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Upstream wraps a failed call to an external service. The cause goes into
// Detail so it can be logged without reaching the client.
func Upstream(message string, cause error) *AppError {
	e := &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// Constraint reports a write rejected by the storage layer. The client sees a
// generic message; detail names the constraint for the server log.
func Constraint(kind ConstraintKind, detail string) *AppError {
	return &AppError{
		Err:     ErrConstraint,
		Message: "the request violates a storage constraint",
		Detail:  detail,
		Kind:    kind,
	}
}

// IsConstraint reports whether err is a constraint violation of the given kind.
func IsConstraint(err error, kind ConstraintKind) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return errors.Is(appErr.Err, ErrConstraint) && appErr.Kind == kind
}
