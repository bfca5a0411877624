package library

import (
	"errors"
	"strings"
)

// ErrDuplicateFingerprint reports that the ledger already holds a record for
// a fingerprint. A materializer losing an insert race recovers by reading
// the winner's record; this error never reaches an end user.
var ErrDuplicateFingerprint = errors.New("duplicate fingerprint")

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLITE_CONSTRAINT_UNIQUE")
}
