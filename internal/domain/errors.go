package domain

import "errors"

var (
	ErrUnauthorized     = errors.New("authentication required")
	ErrAccessDenied     = errors.New("access denied")
	ErrNoSession        = errors.New("no active session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrIdeaTooShort     = errors.New("idea too short")
	ErrCategoryNotFound = errors.New("category not found")
	ErrActiveRequest    = errors.New("active request exists")
	ErrNotSignedIn      = errors.New("not signed in")
)
