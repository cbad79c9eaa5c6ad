package types

import "errors"

// Manager operation outcomes. Callers classify failures with errors.Is and
// render a short user-facing notice; anything that matches none of these is
// treated as an internal error.
var (
	// ErrUnconfigured means a prerequisite setting (court category, prison
	// role) has not been stored for the guild yet.
	ErrUnconfigured = errors.New("guild is not configured for this operation")

	// ErrInvalidTarget means a supplied reference is the wrong kind of
	// object, e.g. a plain channel where a category is required.
	ErrInvalidTarget = errors.New("target is not of the required kind")

	// ErrNoActiveLawsuit means no verdict-less lawsuit exists in the room.
	ErrNoActiveLawsuit = errors.New("no active lawsuit in this room")

	// ErrForbidden means the actor lacks the authority for the operation.
	ErrForbidden = errors.New("actor is not permitted to do this")

	// ErrPlatformUnavailable means a Discord call failed or timed out. State
	// persisted before the call stays persisted.
	ErrPlatformUnavailable = errors.New("discord call failed")

	// ErrPersistenceUnavailable means the database could not serve the
	// operation.
	ErrPersistenceUnavailable = errors.New("store unreachable")
)
