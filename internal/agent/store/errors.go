package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code classifies a document-store error, mirroring the wire contract of
// the remote collaborator.
type Code string

const (
	CodeUnavailable        Code = "unavailable"
	CodeDeadlineExceeded   Code = "deadline-exceeded"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeNotFound           Code = "not-found"
	CodeAlreadyExists      Code = "already-exists"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeInternal           Code = "internal"
)

// Error is a document-store error with a machine-readable code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a store error.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the store error code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}
	return CodeInternal
}

// IsConnectivity reports whether the error indicates a transient network
// problem rather than a logical failure: code unavailable or
// deadline-exceeded, or a message containing "network".
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeUnavailable, CodeDeadlineExceeded:
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "network")
}

// IsMissingIndex reports whether the error is the remote store complaining
// about a missing composite index for the attempted query.
func IsMissingIndex(err error) bool {
	if err == nil || CodeOf(err) != CodeFailedPrecondition {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "index")
}

// IsNotFound reports whether the error is a missing-document error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
