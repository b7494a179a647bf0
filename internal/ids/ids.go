// Package ids generates opaque record identifiers and idempotency tokens.
package ids

import "github.com/google/uuid"

// New returns a prefixed unique id, e.g. "sale-7f9c...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewRequestID returns a bare idempotency token for sale registration.
// Callers normally generate their own; this covers clients that do not.
func NewRequestID() string {
	return uuid.NewString()
}
