// Package dyerr defines the closed set of error kinds the engine can
// return, following the teacher's fmt.Errorf("...: %w", err) wrapping
// convention so callers can use errors.Is/errors.As.
package dyerr

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("%w: detail", Kind) so the
// sentinel survives errors.Is while still carrying a human-readable detail.
var (
	// AdHoc marks a programmer-visible invariant violation: an unknown
	// column-mode combination reached at a point where it should have
	// already been rejected, or another "impossible state".
	AdHoc = errors.New("ad-hoc invariant violation")

	// Storage wraps a failure surfaced verbatim from the storage layer.
	Storage = errors.New("storage error")

	// Shell wraps a failure from an external collaborator (CLI/UI layer).
	Shell = errors.New("shell error")

	// InvalidJSON means a primitive update to a JSON column failed to parse.
	InvalidJSON = errors.New("invalid JSON")

	// InvalidDate means a primitive update to a Date column failed to parse.
	InvalidDate = errors.New("invalid date")

	// InvalidTimestamp means a primitive update to a Timestamp column failed to parse.
	InvalidTimestamp = errors.New("invalid timestamp")

	// InvalidInteger means a primitive update to an Integer or Number column failed to parse.
	InvalidInteger = errors.New("invalid integer")

	// SchemaCycle means a surrogate-view dependency walk (or an inheritance
	// edit) would re-enter a table already on the current walk chain.
	SchemaCycle = errors.New("schema cycle detected")

	// DomainRejected means an operation is disallowed for the target's
	// kind, e.g. a primitive update against a MultiSelect or ChildTable cell.
	DomainRejected = errors.New("operation rejected for column kind")

	// SaveInitialization means storage failed while snapshotting undo
	// state; undo must not run afterward because the snapshot itself may
	// be the broken part.
	SaveInitialization = errors.New("failed to initialize undo snapshot")

	// NotFound means a single-row query matched no rows.
	NotFound = errors.New("not found")
)
