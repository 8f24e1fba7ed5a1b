// Package common defines sentinel errors shared by the server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrInvalidUsername = errors.New("invalid username")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
