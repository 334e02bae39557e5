// Package common defines shared sentinel errors used across Quarry layers.
// Callers should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Validation errors (caller-supplied input rejected by policy).
	ErrValidation = errors.New("validation failed")

	// Business-rule errors.
	ErrLastPublicVersion = errors.New("cannot delete the only public version of a public project")

	// Outbound delivery errors. State committed before the send is kept.
	ErrNotification = errors.New("notification send failed")
)

// RateLimitError reports that a cooldown has not yet elapsed. NextAllowed is
// the earliest time the operation may be retried.
type RateLimitError struct {
	NextAllowed time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.NextAllowed.Format(time.RFC1123))
}
