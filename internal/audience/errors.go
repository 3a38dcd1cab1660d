package audience

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a lookup matched no subscriber. Removal paths
// treat it as a benign no-op.
var ErrNotFound = errors.New("subscriber not found")

// DuplicateError indicates a unique-email lookup matched more than one
// subscriber. Email uniqueness is platform-enforced, so this means the
// platform's data is corrupted.
type DuplicateError struct {
	Email string
	Count int
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("found %d subscribers for %s, expected exactly one", e.Count, e.Email)
}

// DuplicatePolicy controls how a non-strict lookup treats a duplicate
// match: fail the operation, or warn and continue with all matches.
type DuplicatePolicy string

const (
	DuplicateFail DuplicatePolicy = "fail"
	DuplicateWarn DuplicatePolicy = "warn"
)

// ParseDuplicatePolicy maps a config string to a policy. Anything other
// than "warn" resolves to DuplicateFail.
func ParseDuplicatePolicy(s string) DuplicatePolicy {
	if s == string(DuplicateWarn) {
		return DuplicateWarn
	}
	return DuplicateFail
}
