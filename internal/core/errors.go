package core

import "errors"

// Sentinel errors for the merge and session lifecycle. Use with errors.Is.
var (
	// ErrDuplicateEvent is returned when an event with the same ID is
	// already present in the working set. Expected under at-least-once
	// live delivery.
	ErrDuplicateEvent = errors.New("duplicate event id")

	// ErrOrganizationMismatch is returned when an event is scoped to a
	// different organization than the working set.
	ErrOrganizationMismatch = errors.New("event belongs to another organization")

	// ErrMalformedEvent is returned when a raw event is missing its
	// mandatory fields and was skipped.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrSessionClosed is returned from operations on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
)
