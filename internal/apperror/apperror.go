// Package apperror defines the error kinds the service raises and their
// HTTP mapping, so handlers can translate any service error into the
// {success:false, message} envelope without string matching.
package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidState
	KindDuplicateKey
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func InvalidState(message string) *Error { return New(KindInvalidState, message) }
func DuplicateKey(message string) *Error { return New(KindDuplicateKey, message) }

// KindOf reports the kind of err, or KindUnknown for infrastructure errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusCode maps an error to the HTTP status the response should carry.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidState, KindDuplicateKey:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
