package core

import "errors"

var (
	// ErrFileNotFound is returned when a file ID is not part of the session.
	ErrFileNotFound = errors.New("file not found in session")

	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFull is returned when a session already holds its maximum
	// number of files.
	ErrSessionFull = errors.New("session file limit reached")

	// ErrNoFile is returned when an upload request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyFiles is returned for files beyond the per-request limit.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidRequest is returned for malformed API request bodies.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited is returned by the web layer when a client exceeds its
	// request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)
