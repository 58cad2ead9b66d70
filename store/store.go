package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// ErrStoreUnavailable is returned by New when the persistent store cannot be
// opened at all (bad path, locked file, missing permissions). Callers should
// treat it as non-fatal and degrade to remote-only mode for the session.
var ErrStoreUnavailable = errors.New("store: persistent store unavailable")

// StorageError wraps a failed read or write transaction. The syncer absorbs
// these and treats the affected category as empty, which forces a remote
// refetch on the next load.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is durable, keyed storage for category value lists. Exactly one record
// exists per category (upsert semantics). Implementations must serialize
// concurrent AppendIfAbsent calls for the same category so two writers cannot
// both append entries that differ only in arrival order.
type Store interface {
	// Get returns the stored list for a category, or an empty list if the
	// category has never been written.
	Get(ctx context.Context, category uniquevalue.Category) ([]string, error)

	// Put replaces the entire list for a category and stamps the current time.
	// It creates the record if absent.
	Put(ctx context.Context, category uniquevalue.Category, values []string) error

	// AppendIfAbsent appends newValue to the category's list unless a
	// case-insensitively equal entry already exists, then returns the resulting
	// full list. The read-modify-write runs as a single transaction.
	AppendIfAbsent(ctx context.Context, category uniquevalue.Category, newValue string) ([]string, error)

	// GetAll returns every category record currently present. Categories that
	// were never written are omitted, not filled with empty lists.
	GetAll(ctx context.Context) (uniquevalue.Set, error)

	// LastUpdated returns the write timestamp for a category's record, or the
	// zero time if the record is absent.
	LastUpdated(ctx context.Context, category uniquevalue.Category) (time.Time, error)

	// Clear deletes all records across all categories. Used on logout.
	Clear(ctx context.Context) error

	// Close releases the underlying database handle. The store is opened once
	// per session and closed at teardown.
	Close() error
}
