package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")

	ErrUserNotFound   = errors.New("user not found")
	ErrRefundNotFound = errors.New("refund not found")

	// ErrConflict is the parent of every state conflict. Unique-field
	// collisions map to 409; ErrUserHasRefunds is a business-rule conflict.
	ErrConflict       = errors.New("conflict")
	ErrEmailTaken     = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrUserHasRefunds = fmt.Errorf("%w: user still owns refunds", ErrConflict)
	// ErrIdempotencyInFlight means another request holding the same
	// Idempotency-Key has not finished yet.
	ErrIdempotencyInFlight = fmt.Errorf("%w: request with this Idempotency-Key is in progress", ErrConflict)

	ErrUnsupportedFile = errors.New("unsupported file")
)

// ValidationError reports malformed or out-of-range input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
