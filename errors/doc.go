// Package errors provides the structured error types used across the
// schemafree library.
//
// Errors carry a Phase (where in processing the failure happened) and a
// Kind (what category of failure it is), plus an optional field path into
// the schema tree. Two errors match under errors.Is when their Phase and
// Kind agree, so callers can test against the exported sentinels:
//
//	if errors.Is(err, schemafreeerrors.ErrNilConfig) { ... }
package errors
