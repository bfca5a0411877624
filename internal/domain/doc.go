// Package domain defines the authoritative library entities and their
// invariants. Entities validate themselves at the point of mutation; callers
// are never trusted to pass pre-validated values. Violating an invariant is a
// programming defect surfaced as ErrInvariantViolation, not a recoverable
// runtime condition.
package domain
