package service

import "errors"

// Errors the handler layer maps to HTTP statuses.
var (
	// ErrEmailTaken is returned when registering with an email that
	// already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login failure. Deliberately
	// shared between unknown-email and wrong-password cases.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidSession is returned when a bearer token is unknown or
	// expired.
	ErrInvalidSession = errors.New("invalid or expired session")

	// ErrUserNotFound is returned when a session resolves to a user
	// that no longer exists, or a profile mutation targets a missing
	// user.
	ErrUserNotFound = errors.New("user not found")
)
