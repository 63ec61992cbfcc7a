package errors

import "errors"

var (
	ErrInvalidUser        = errors.New("user id must be positive")
	ErrInvalidRole        = errors.New("role id must not be empty")
	ErrRoleAlreadyGranted = errors.New("role already granted to user")
	ErrAssignmentNotFound = errors.New("role assignment not found")
)
