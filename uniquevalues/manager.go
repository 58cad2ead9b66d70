package uniquevalues

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-uniquevalue-cache/cache"
	"github.com/goliatone/go-uniquevalue-cache/syncer"
	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// CacheKey is the single logical key covering the combined category set. All
// consumers share it, so concurrent loads collapse into one synchronizer call
// and a mutation by one consumer is immediately visible to the rest.
const CacheKey = "unique_values::all"

// OnlineFunc reports whether the network is believed reachable. When it
// returns false a failed load is not retried.
type OnlineFunc func() bool

// Options carries the optional collaborators for a Manager.
type Options struct {
	// Logger receives cache path decisions and absorbed errors. Optional.
	Logger logrus.FieldLogger

	// Online gates the single retry after a failed load. Defaults to always
	// online.
	Online OnlineFunc
}

// Manager is the shared, component-facing entry point for unique values. It
// layers the in-memory reactive cache over the synchronizer: reads are
// deduplicated and served from memory inside the freshness window, mutations
// update the in-memory value optimistically after the local write succeeds.
//
// Construct one per session and share it; all methods are safe for concurrent
// use.
type Manager struct {
	sync   *syncer.Synchronizer
	cache  cache.Service
	logger logrus.FieldLogger
	online OnlineFunc

	// mu serializes every snapshot-then-Set update of the shared cache entry.
	// The cache itself is safe for concurrent use, but the optimistic merge is
	// a read-modify-write of the whole set; without the lock two concurrent
	// writers could each replace the entry from a snapshot missing the other's
	// merge.
	mu sync.Mutex
}

// New wires a Manager from its collaborators.
func New(sync *syncer.Synchronizer, cacheService cache.Service, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	online := opts.Online
	if online == nil {
		online = func() bool { return true }
	}
	return &Manager{
		sync:   sync,
		cache:  cacheService,
		logger: logger,
		online: online,
	}
}

// Values returns the combined category set. Inside the freshness window the
// in-memory copy is returned without touching the store or the network;
// concurrent callers during a load share a single underlying fetch.
func (m *Manager) Values(ctx context.Context) (uniquevalue.Set, error) {
	return cache.GetOrFetch(ctx, m.cache, CacheKey, m.load)
}

// Snapshot returns the in-memory copy without triggering any load. The second
// return reports whether a value was present.
func (m *Manager) Snapshot(ctx context.Context) (uniquevalue.Set, bool) {
	return cache.Get[uniquevalue.Set](ctx, m.cache, CacheKey)
}

// load is the cache fetch path: one synchronizer load, retried at most once,
// and only while the network looks reachable.
func (m *Manager) load(ctx context.Context) (uniquevalue.Set, error) {
	set, err := m.sync.LoadAll(ctx)
	if err == nil {
		return set, nil
	}
	if !m.online() {
		m.logger.WithError(err).Warn("unique value load failed while offline, not retrying")
		return nil, err
	}

	m.logger.WithError(err).Debug("unique value load failed, retrying once")
	return m.sync.LoadAll(ctx)
}

// AddValue records a newly entered free-text value. The write goes to the
// local store only; the server learns the value when the record carrying it is
// created through the normal write path. On success the in-memory cache is
// updated in place so every other consumer sees the value immediately.
//
// When the session is running without a local store the value is still merged
// into the in-memory cache so the current session benefits, it just will not
// survive a reload.
func (m *Manager) AddValue(ctx context.Context, category uniquevalue.Category, value string) ([]string, error) {
	updated, err := m.sync.AddValue(ctx, category, value)
	memoryOnly := errors.Is(err, syncer.ErrNoLocalStore)
	if memoryOnly {
		m.logger.Warn("no local store, adding unique value to memory only")
	} else if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.Snapshot(ctx)
	if memoryOnly {
		updated = uniquevalue.AppendIfAbsent(snapshot.Get(category), value)
	}
	if ok {
		if err := m.cache.Set(ctx, CacheKey, snapshot.WithValues(category, updated)); err != nil {
			m.logger.WithError(err).Warn("updating in-memory unique values failed")
		}
	}
	return updated, nil
}

// Refresh unconditionally resyncs from the remote source, overwriting both the
// local store and the in-memory cache. Wire it to explicit resync actions only.
func (m *Manager) Refresh(ctx context.Context) (uniquevalue.Set, error) {
	set, err := m.sync.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.cache.Set(ctx, CacheKey, set); err != nil {
		m.logger.WithError(err).Warn("updating in-memory unique values failed")
	}
	return set, nil
}

// Clear drops every category record from the local store and evicts the
// in-memory copy. Used at logout.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.sync.Clear(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Delete(ctx, CacheKey)
}

// Names returns the current list for the names category.
func (m *Manager) Names(ctx context.Context) ([]string, error) {
	return m.category(ctx, uniquevalue.CategoryNames)
}

// Gifts returns the current list for the gifts category.
func (m *Manager) Gifts(ctx context.Context) ([]string, error) {
	return m.category(ctx, uniquevalue.CategoryGifts)
}

// Relations returns the current list for the relations category.
func (m *Manager) Relations(ctx context.Context) ([]string, error) {
	return m.category(ctx, uniquevalue.CategoryRelations)
}

// Cities returns the current list for the cities category.
func (m *Manager) Cities(ctx context.Context) ([]string, error) {
	return m.category(ctx, uniquevalue.CategoryCities)
}

// WorkTypes returns the current list for the workTypes category.
func (m *Manager) WorkTypes(ctx context.Context) ([]string, error) {
	return m.category(ctx, uniquevalue.CategoryWorkTypes)
}

func (m *Manager) category(ctx context.Context, category uniquevalue.Category) ([]string, error) {
	set, err := m.Values(ctx)
	if err != nil {
		return nil, err
	}
	return set.Get(category), nil
}

// Export serializes the current combined set as indented JSON, suitable for
// backups or debugging.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	set, err := m.Values(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(set, "", "  ")
}

// Import restores a previously exported snapshot into the local store and the
// in-memory cache. The payload must contain every category; a partial file is
// rejected before anything is written.
func (m *Manager) Import(ctx context.Context, data []byte) (uniquevalue.Set, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("uniquevalues: invalid import payload: %w", err)
	}

	set := make(uniquevalue.Set, len(uniquevalue.Categories()))
	for _, category := range uniquevalue.Categories() {
		values, ok := raw[category.String()]
		if !ok {
			return nil, fmt.Errorf("uniquevalues: import payload missing category %q", category)
		}
		set[category] = values
	}

	if err := m.sync.Restore(ctx, set); err != nil && !errors.Is(err, syncer.ErrNoLocalStore) {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.cache.Set(ctx, CacheKey, set); err != nil {
		m.logger.WithError(err).Warn("updating in-memory unique values failed")
	}
	return set, nil
}
