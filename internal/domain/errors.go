package domain

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-sql-driver/mysql"
)

// Kind categorizes an application error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindDuplicate    Kind = "duplicate"
	KindTokenInvalid Kind = "token_invalid"
	KindTokenExpired Kind = "token_expired"
	KindInternal     Kind = "internal"
)

// AppError is the single error type the responder understands.
// It is constructed where a failure is detected and flows unchanged up
// the call stack. Operational marks anticipated failures; anything else
// is treated as a defect and sanitized in production responses.
type AppError struct {
	Kind        Kind
	Status      int
	Message     string
	Err         error
	Operational bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg, Operational: true}
}

func NewNotFound(resource string) *AppError {
	msg := "not found"
	if resource != "" {
		msg = fmt.Sprintf("No %s found with that ID", resource)
	}
	return &AppError{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg, Operational: true}
}

func NewUnauthorized(msg string) *AppError {
	if msg == "" {
		msg = "You are not logged in. Please log in to get access."
	}
	return &AppError{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: msg, Operational: true}
}

func NewForbidden(msg string) *AppError {
	if msg == "" {
		msg = "You do not have permission to perform this action"
	}
	return &AppError{Kind: KindForbidden, Status: http.StatusForbidden, Message: msg, Operational: true}
}

func NewDuplicate(msg string) *AppError {
	if msg == "" {
		msg = "Duplicate field value. Please use another value."
	}
	return &AppError{Kind: KindDuplicate, Status: http.StatusBadRequest, Message: msg, Operational: true}
}

func NewTokenInvalid() *AppError {
	return &AppError{Kind: KindTokenInvalid, Status: http.StatusUnauthorized, Message: "Invalid token. Please log in again.", Operational: true}
}

func NewTokenExpired() *AppError {
	return &AppError{Kind: KindTokenExpired, Status: http.StatusUnauthorized, Message: "Your token has expired. Please log in again.", Operational: true}
}

func NewInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Something went very wrong!", Err: err}
}

// From normalizes any error into an *AppError. Non-AppError values become
// non-operational internals; this is the only place status/kind defaulting
// happens.
func From(err error) *AppError {
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	return NewInternal(err)
}

// FromStorage translates driver-level failures into the taxonomy. It is
// called once, at the repository boundary; business logic never inspects
// driver errors.
func FromStorage(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound(resource)
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) && my.Number == 1062 {
		return NewDuplicate("")
	}
	return NewInternal(err)
}

func IsNotFound(err error) bool     { return kindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return kindOf(err) == KindValidation }
func IsUnauthorized(err error) bool { return kindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return kindOf(err) == KindForbidden }
func IsDuplicate(err error) bool    { return kindOf(err) == KindDuplicate }

func kindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindInternal
}
