package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidActionToken     = errors.New("action token is invalid or expired")
	ErrIdentityUnavailable    = errors.New("identity service unavailable")
	ErrRefreshTokenRequired   = errors.New("a refresh token is required")
)

// FieldErrors is the typed validation result: field name to problem. It
// replaces reflection-driven constraint checking with explicit validator
// functions.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes FieldErrors match ErrInvalidRequest so transport mapping stays on
// sentinel comparisons.
func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalidRequest
}
