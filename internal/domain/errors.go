package domain

import "errors"

var (
	// ErrEmptyBank is returned when no questions were loaded; fatal at startup.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrStoreUnavailable wraps transient session store failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrMalformedSession marks a stored field that could not be decoded.
	ErrMalformedSession = errors.New("malformed session data")
)
