package domain

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes exposed to API clients.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeRecordNotFound      = "RECORD_NOT_FOUND"
	CodeDuplicateRecord     = "DUPLICATE_RECORD"
	CodeInvalidField        = "INVALID_FIELD"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateRecord    = errors.New("record already exists")
	ErrValidation         = errors.New("validation failed")
	ErrUnknownField       = errors.New("unknown field")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
)

// NotFound reports that no entity with the given id exists.
func NotFound(entity string, id any) error {
	return oops.
		Code(CodeRecordNotFound).
		With("entity", entity).
		With("id", fmt.Sprint(id)).
		Wrapf(ErrNotFound, "%s with id %v not found", entity, id)
}

// Duplicate reports a uniqueness violation on field. value may be nil when
// the offending value is unknown (e.g. raised by a database constraint).
func Duplicate(entity, field string, value any) error {
	b := oops.
		Code(CodeDuplicateRecord).
		With("entity", entity).
		With("field", field)
	if value == nil {
		return b.Wrapf(ErrDuplicateRecord, "%s with this %s already exists", entity, field)
	}
	return b.Wrapf(ErrDuplicateRecord, "%s %v already exists", field, value)
}

// Invalid reports malformed input for field.
func Invalid(field, message string) error {
	return oops.
		Code(CodeValidationError).
		With("field", field).
		Wrapf(ErrValidation, "%s: %s", field, message)
}

// UnknownField reports a field name that the entity does not expose.
func UnknownField(entity string, field any) error {
	return oops.
		Code(CodeInvalidField).
		With("entity", entity).
		With("field", fmt.Sprint(field)).
		Wrapf(ErrUnknownField, "%s has no queryable field %q", entity, field)
}

// InvalidCredentials is the single outcome of every failed login.
func InvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// Unauthorized reports a missing, expired or revoked session.
func Unauthorized(message string) error {
	return oops.Code(CodeInvalidToken).Wrapf(ErrUnauthorized, "%s", message)
}

func Forbidden(message string) error {
	return oops.Code(CodeForbidden).Wrapf(ErrForbidden, "%s", message)
}
