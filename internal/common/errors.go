// Package common defines shared constants and sentinel errors used across
// the terminal agent and the document-store server. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors are always returned as structured results,
	// never panics.
	ErrorValidation = errors.New("validation error")

	// Credential errors. ErrPinMismatch must stay distinguishable from
	// system errors so the UI can render an inline message.
	ErrPinMismatch = errors.New("incorrect PIN")
	ErrNoPinSet    = errors.New("no PIN set")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	ErrorLoginAlreadyExists   = errors.New("login already exists")
	ErrorInvalidLoginPassword = errors.New("invalid login/password")
)
