package domain

import (
	"fmt"
	"time"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`

	// RetryAfter is sent as the Retry-After header when positive.
	RetryAfter time.Duration `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrInvalidAmount(msg string) *AppError {
	return &AppError{Code: "INVALID_AMOUNT", Message: msg, Status: 400}
}

func ErrInvalidRole(role string) *AppError {
	return &AppError{Code: "INVALID_ROLE", Message: fmt.Sprintf("invalid role %q", role), Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrUsernameTaken(username string) *AppError {
	return &AppError{Code: "USERNAME_TAKEN", Message: fmt.Sprintf("username %q already exists", username), Status: 409}
}

func ErrTableNotSettled(msg string) *AppError {
	return &AppError{Code: "TABLE_NOT_SETTLED", Message: msg, Status: 409}
}

func ErrDuplicateRequest(msg string) *AppError {
	return &AppError{Code: "DUPLICATE_REQUEST", Message: msg, Status: 409}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: "ACCOUNT_LOCKED", Message: msg, Status: 429}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Messages shared between the gateway and its tests.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgMissingToken       = "missing Authorization header"
	MsgMalformedToken     = "malformed Authorization header"
	MsgInvalidToken       = "invalid or expired token"
	MsgInsufficientRole   = "insufficient permissions"
	MsgIncorrectPassword  = "current password is incorrect"
)
