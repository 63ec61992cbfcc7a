package errors

import "errors"

var (
	ErrAccountNotFound = errors.New("buyer account not found")
	ErrInvalidUser     = errors.New("user id must be positive")
)
