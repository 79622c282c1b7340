package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than new error
// instances in Validate(). Callers can use errors.Is() for programmatic
// handling while still getting human-readable messages. errors.New()
// rather than fmt.Errorf() because no dynamic values are needed.
var (
	// ErrNoStateFile is returned when the state document path is empty.
	ErrNoStateFile = errors.New("no state file configured")

	// ErrNoReportsDir is returned when the reports directory is empty.
	ErrNoReportsDir = errors.New("no reports directory configured")

	// ErrInvalidScanTimeout is returned when the scan timeout is not
	// positive. A zero timeout would cancel every scan immediately.
	ErrInvalidScanTimeout = errors.New("invalid scan timeout: must be positive")

	// ErrInvalidNotifierBackend is returned for an unknown dispatch
	// backend. Valid values are "stub" and "smtp".
	ErrInvalidNotifierBackend = errors.New(`invalid notifier backend: must be "stub" or "smtp"`)

	// ErrSMTPIncomplete is returned when the smtp backend is selected but
	// host or port is missing.
	ErrSMTPIncomplete = errors.New("smtp backend selected but host/port missing")
)
