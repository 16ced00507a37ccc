// Package common defines shared sentinel errors used across client and
// server layers of notiboard. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Validation errors, rejected before any network call.
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyMessage  = errors.New("empty message")
	ErrNoRecipients  = errors.New("no recipients")

	// Session / auth errors.
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Transport errors.
	ErrUnavailable = errors.New("server unavailable")
)
