// Package apperr defines the error taxonomy surfaced through the API
// envelope. Every error carries the HTTP status it maps to; handlers never
// invent status codes on their own.
package apperr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error kept out of the client-facing
// message.
func (e *Error) WithCause(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, cause: err}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// OutOfStock reports insufficient inventory; the message always names the
// product and the remaining count so the storefront can show it verbatim.
func OutOfStock(productName string, remaining int64) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("product %q is out of stock, only %d left", productName, remaining),
	}
}

func InvalidTransition(current string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("order cannot be changed while in status %q", current),
	}
}

func InvalidSignature() *Error {
	return &Error{Status: http.StatusBadRequest, Message: "webhook signature verification failed"}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal server error", cause: err}
}
