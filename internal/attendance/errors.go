package attendance

import "errors"

var (
	// ErrInvalidReference marks a check-in against a missing or deleted
	// location, or a missing partner.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrSessionNotFound covers both an unknown session id and a session
	// that is already checked out; the two are not distinguished.
	ErrSessionNotFound = errors.New("active attendance session not found")

	// ErrUnavailable marks a persistence call that timed out or was
	// canceled. The caller may retry; no retries happen internally.
	ErrUnavailable = errors.New("attendance store unavailable")
)
