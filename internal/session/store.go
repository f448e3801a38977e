package session

import (
	"context"
	"time"
)

// Store is the persistence port for session records. Any key-value capable
// backend can implement it; the manager never talks to storage directly.
//
// Implementations must return ErrNotFound from Get when no record exists.
// Delete of a missing record may be a no-op or return ErrNotFound; callers
// treat both the same.
type Store interface {
	// Save inserts or replaces a record
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes a record, clearing all of its fields at once
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every record whose expiry is at or before now,
	// returning the number removed
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
