// Package apperr defines the error kinds returned across the command
// surface. Callers wrap them with context and match with errors.Is; the
// UI only ever sees the resulting message string.
package apperr

import "errors"

var (
	// ErrInvalidInput marks a malformed URL or other bad argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing main window.
	ErrNotFound = errors.New("not found")

	// ErrPlatform wraps a failure reported by the windowing host.
	ErrPlatform = errors.New("platform error")

	// ErrNetwork marks a transport-level failure: DNS, connect, TLS or timeout.
	ErrNetwork = errors.New("network error")
)
