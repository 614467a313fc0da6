package domain

import "errors"

// ErrorCode is the stable, machine-readable kind of a domain failure.
type ErrorCode string

const (
	CodeValidation              ErrorCode = "VALIDATION_ERROR"
	CodeEmailExists             ErrorCode = "EMAIL_EXISTS"
	CodeUsernameExists          ErrorCode = "USERNAME_EXISTS"
	CodeInvalidCredentials      ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken            ErrorCode = "INVALID_TOKEN"
	CodeNoToken                 ErrorCode = "NO_TOKEN"
	CodeNotAuthenticated        ErrorCode = "NOT_AUTHENTICATED"
	CodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"
	CodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	CodeInvalidPassword         ErrorCode = "INVALID_PASSWORD"
	CodeArticleNotFound         ErrorCode = "ARTICLE_NOT_FOUND"
	CodeRateLimited             ErrorCode = "RATE_LIMITED"
)

// Error is a domain failure. Two Errors match under errors.Is when their
// codes are equal, so callers compare against the sentinels below even when
// the message or field differ.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return string(e.Code) + ": " + e.Field + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation              = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrEmailExists             = &Error{Code: CodeEmailExists, Message: "email is already registered", Field: "email"}
	ErrUsernameExists          = &Error{Code: CodeUsernameExists, Message: "username is already taken", Field: "username"}
	ErrInvalidCredentials      = &Error{Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrInvalidToken            = &Error{Code: CodeInvalidToken, Message: "invalid or expired token"}
	ErrNoToken                 = &Error{Code: CodeNoToken, Message: "authentication token required"}
	ErrNotAuthenticated        = &Error{Code: CodeNotAuthenticated, Message: "authentication required"}
	ErrInsufficientPermissions = &Error{Code: CodeInsufficientPermissions, Message: "insufficient permissions"}
	ErrUserNotFound            = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrInvalidPassword         = &Error{Code: CodeInvalidPassword, Message: "current password is incorrect", Field: "oldPassword"}
	ErrArticleNotFound         = &Error{Code: CodeArticleNotFound, Message: "article not found"}
	ErrRateLimited             = &Error{Code: CodeRateLimited, Message: "too many requests"}
)

// NewValidationError reports a structural input failure on a single field.
func NewValidationError(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Field: field}
}

// CodeOf returns the domain code carried by err, or "" when err is not a
// domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
