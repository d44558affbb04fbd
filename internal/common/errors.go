// Package common defines shared sentinel errors and small helpers used across
// dailyops components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failed")
	ErrClosed        = errors.New("storage closed")

	// Load-time errors. ErrDecryption is fatal, ErrCorruptStore is recovered
	// by resetting to an empty store.
	ErrDecryption   = errors.New("unable to decrypt data file, verify the secret")
	ErrCorruptStore = errors.New("corrupt data store")

	// Validation errors.
	ErrValidation   = errors.New("validation error")
	ErrWeakPassword = errors.New("password must be at least 8 characters and mix letters, digits and symbols")

	// Auth errors. The boundary never tells these apart from a missing session.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
