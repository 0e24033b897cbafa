package errs

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRetriesExhausted marks an upstream call that failed on every allowed
	// attempt, as opposed to one rejected outright by the API.
	ErrRetriesExhausted = errors.New("all retry attempts exhausted")
	// ErrJobAlreadyRunning guards the one-active-job-per-user-and-tier rule.
	ErrJobAlreadyRunning = errors.New("report job already pending or processing")
)
