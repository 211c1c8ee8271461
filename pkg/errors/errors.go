package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Generic errors.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Enrollment and checkout errors. Clients branch on Code, never on Message.
var (
	ErrAlreadyEnrolled          = New("ALREADY_ENROLLED", http.StatusConflict, "already enrolled")
	ErrClassFull                = New("CLASS_FULL", http.StatusConflict, "class is full")
	ErrClassInactive            = New("CLASS_INACTIVE", http.StatusConflict, "class is not accepting enrollments")
	ErrFreeOffering             = New("FREE_OFFERING", http.StatusBadRequest, "offering is free; enroll directly")
	ErrPaymentRequired          = New("PAYMENT_REQUIRED", http.StatusPaymentRequired, "payment required")
	ErrCheckoutFailed           = New("CHECKOUT_FAILED", http.StatusBadGateway, "failed to create checkout session")
	ErrNoCheckoutURL            = New("NO_CHECKOUT_URL", http.StatusBadGateway, "No checkout URL returned")
	ErrInvalidCheckoutURL       = New("INVALID_CHECKOUT_URL", http.StatusBadGateway, "Invalid checkout URL received")
	ErrInvalidSignature         = New("INVALID_SIGNATURE", http.StatusUnauthorized, "invalid notification signature")
	ErrRelationshipRequired     = New("RELATIONSHIP_REQUIRED", http.StatusForbidden, "an approved parent-child relationship is required")
	ErrTestRegistrationDisabled = New("TEST_REGISTRATION_DISABLED", http.StatusForbidden, "test registration is disabled")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
