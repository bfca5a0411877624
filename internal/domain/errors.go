package domain

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a mutation rejected by an entity's own business
// rules. Materialization treats it as fatal for the attempt and never coerces
// the value into range.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrNotFound reports a missing entity.
var ErrNotFound = errors.New("entity not found")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
