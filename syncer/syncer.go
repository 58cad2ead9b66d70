// Package syncer decides when the local persistent store is authoritative
// enough to serve unique values and when to refresh from the remote source.
//
// The read policy is local-first: a complete local snapshot is served without
// touching the network. The write policy is local-write-ahead: AddValue only
// persists locally, and the server learns new values when the entity carrying
// the free-text field is created through the normal write path. The staleness
// window this opens between client and server lists is bounded by the next
// full refresh.
package syncer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-uniquevalue-cache/remote"
	"github.com/goliatone/go-uniquevalue-cache/store"
	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// ErrNoLocalStore is returned by operations that need the persistent store
// when the synchronizer is running in remote-only mode (the store failed to
// open at startup).
var ErrNoLocalStore = errors.New("syncer: no local store available")

// Synchronizer coordinates the local persistent store and the remote source.
// Construct one per session with New and share it; it is safe for concurrent
// use as long as the underlying store is.
type Synchronizer struct {
	store  store.Store
	source remote.Source
	logger logrus.FieldLogger
}

// New builds a Synchronizer. st may be nil, which puts the synchronizer into
// remote-only mode: every LoadAll fetches from the source and AddValue fails
// with ErrNoLocalStore. logger may be nil.
func New(st store.Store, source remote.Source, logger logrus.FieldLogger) *Synchronizer {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &Synchronizer{store: st, source: source, logger: logger}
}

// LoadAll returns the current value lists for every category.
//
// The local snapshot is served as-is when every category is present and
// non-empty. Otherwise the remote source is fetched, persisted, and returned.
// When the remote fetch fails but any local data exists (even incomplete),
// that stale snapshot is returned instead of the error; only a failure with
// nothing local at all propagates.
func (s *Synchronizer) LoadAll(ctx context.Context) (uniquevalue.Set, error) {
	local := s.localSnapshot(ctx)

	if local.Complete() {
		s.logger.Debug("serving unique values from local store")
		return local, nil
	}

	s.logger.Debug("local snapshot incomplete, fetching unique values from remote")
	fetched, err := s.source.FetchAll(ctx)
	if err != nil {
		if !local.Empty() {
			s.logger.WithError(err).Warn("remote fetch failed, serving stale local snapshot")
			return local, nil
		}
		return nil, err
	}

	s.persist(ctx, fetched)
	return fetched, nil
}

// AddValue appends value to a category's local list unless a
// case-insensitively equal entry exists, and returns the resulting list. This
// is a local-only operation: the remote source is never called.
func (s *Synchronizer) AddValue(ctx context.Context, category uniquevalue.Category, value string) ([]string, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrNoLocalStore
	}
	return s.store.AppendIfAbsent(ctx, category, value)
}

// ForceRefresh unconditionally fetches all categories from the remote source,
// overwrites the local records, and returns the fresh set. It is only invoked
// from explicit resync actions, never automatically.
func (s *Synchronizer) ForceRefresh(ctx context.Context) (uniquevalue.Set, error) {
	fetched, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, fetched)
	return fetched, nil
}

// Restore overwrites the local records with the provided set without touching
// the remote source. Used when importing a previously exported snapshot.
func (s *Synchronizer) Restore(ctx context.Context, set uniquevalue.Set) error {
	for category := range set {
		if err := category.Validate(); err != nil {
			return err
		}
	}
	if s.store == nil {
		return ErrNoLocalStore
	}
	s.persist(ctx, set)
	return nil
}

// Clear removes every category record from the local store. Used at logout.
func (s *Synchronizer) Clear(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}

// localSnapshot reads the store, converting any storage failure into an empty
// snapshot so the caller falls through to a remote fetch.
func (s *Synchronizer) localSnapshot(ctx context.Context) uniquevalue.Set {
	if s.store == nil {
		return uniquevalue.Set{}
	}
	local, err := s.store.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("reading local store failed, treating as empty")
		return uniquevalue.Set{}
	}
	return local
}

// persist writes each fetched category into the local store. The writes touch
// disjoint keys and run concurrently. A failed write degrades durability, not
// the returned data, so failures are logged and absorbed.
func (s *Synchronizer) persist(ctx context.Context, set uniquevalue.Set) {
	if s.store == nil {
		return
	}

	var g errgroup.Group
	for category, values := range set {
		g.Go(func() error {
			if err := s.store.Put(ctx, category, values); err != nil {
				s.logger.WithError(err).WithField("category", category.String()).
					Warn("persisting fetched values failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
