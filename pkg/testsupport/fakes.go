package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-uniquevalue-cache/store"
	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// FakeSource is a scripted remote.Source for tests. Set Data for successful
// fetches or Err to fail the batch; FetchCalls counts invocations.
type FakeSource struct {
	mu         sync.Mutex
	Data       uniquevalue.Set
	Err        error
	fetchCalls int
}

// FetchAll returns a clone of the scripted data, or the scripted error.
func (f *FakeSource) FetchAll(ctx context.Context) (uniquevalue.Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Data.Clone(), nil
}

// FetchCalls returns how many times FetchAll has been invoked.
func (f *FakeSource) FetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// SetError swaps the scripted error for subsequent fetches.
func (f *FakeSource) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// MemoryStore is an in-memory store.Store for tests, with per-operation error
// injection and call counting so tests can assert which paths were exercised.
type MemoryStore struct {
	mu          sync.Mutex
	records     uniquevalue.Set
	lastUpdated map[uniquevalue.Category]time.Time

	FailGetAll error
	FailPut    error
	FailAppend error

	getAllCalls int
	putCalls    int
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     uniquevalue.Set{},
		lastUpdated: map[uniquevalue.Category]time.Time{},
	}
}

// Seed replaces the stored records wholesale.
func (m *MemoryStore) Seed(set uniquevalue.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = set.Clone()
}

// GetAllCalls returns how many times GetAll has been invoked.
func (m *MemoryStore) GetAllCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAllCalls
}

// PutCalls returns how many times Put has been invoked.
func (m *MemoryStore) PutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putCalls
}

func (m *MemoryStore) Get(ctx context.Context, category uniquevalue.Category) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records.Get(category), nil
}

func (m *MemoryStore) Put(ctx context.Context, category uniquevalue.Category, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.FailPut != nil {
		return m.FailPut
	}
	m.records[category] = append([]string(nil), values...)
	m.lastUpdated[category] = time.Now()
	return nil
}

func (m *MemoryStore) AppendIfAbsent(ctx context.Context, category uniquevalue.Category, newValue string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend != nil {
		return nil, m.FailAppend
	}
	updated := uniquevalue.AppendIfAbsent(m.records.Get(category), newValue)
	m.records[category] = updated
	m.lastUpdated[category] = time.Now()
	return append([]string(nil), updated...), nil
}

func (m *MemoryStore) GetAll(ctx context.Context) (uniquevalue.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllCalls++
	if m.FailGetAll != nil {
		return nil, m.FailGetAll
	}
	return m.records.Clone(), nil
}

func (m *MemoryStore) LastUpdated(ctx context.Context, category uniquevalue.Category) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdated[category], nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = uniquevalue.Set{}
	m.lastUpdated = map[uniquevalue.Category]time.Time{}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
