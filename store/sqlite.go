package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-uniquevalue-cache/uniquevalue"
)

// schemaVersion is recorded in the SQLite user_version pragma. Bump it when
// the record layout changes and add a migration in open.
const schemaVersion = 1

// record is the persisted shape: one row per category, the value list stored
// as a JSON array, the timestamp as RFC 3339 text.
type record struct {
	bun.BaseModel `bun:"table:unique_values,alias:uv"`

	Category    string `bun:"category,pk"`
	Values      string `bun:"values,notnull"`
	LastUpdated string `bun:"last_updated,notnull"`
}

// sqliteStore implements Store on top of a bun-wrapped SQLite database.
//
// SQLite already serializes transactions on a single connection, but that only
// protects the individual statements. AppendIfAbsent is a read-modify-write
// spanning a decode and re-encode in Go, so each category additionally gets its
// own mutex; writes to different categories still proceed independently.
type sqliteStore struct {
	db     *bun.DB
	clock  clock.Clock
	logger logrus.FieldLogger
	locks  *xsync.MapOf[string, *sync.Mutex]
}

// Interface assertion to make sure the implementation stays complete.
var _ Store = (*sqliteStore)(nil)

// New opens (creating on first use) the persistent store at cfg.Path. It
// returns ErrStoreUnavailable when the database cannot be opened or the schema
// cannot be created; callers should degrade to remote-only mode in that case.
func New(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	cfg = cfg.withDefaults()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// A single connection keeps every transaction on one queue, matching the
	// serialization the rest of the package assumes.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	s := &sqliteStore{
		db:     db,
		clock:  cfg.Clock,
		logger: cfg.Logger,
		locks:  xsync.NewMapOf[string, *sync.Mutex](),
	}

	if err := s.open(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s, nil
}

func (s *sqliteStore) open(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.NewCreateTable().
		Model((*record)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, category uniquevalue.Category) ([]string, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.fetch(ctx, s.db, category)
	if err != nil {
		return nil, &StorageError{Op: "get " + category.String(), Err: err}
	}
	if rec == nil {
		return []string{}, nil
	}
	values, err := decodeValues(rec.Values)
	if err != nil {
		return nil, &StorageError{Op: "decode " + category.String(), Err: err}
	}
	return values, nil
}

func (s *sqliteStore) Put(ctx context.Context, category uniquevalue.Category, values []string) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.upsert(ctx, s.db, category, values); err != nil {
		return &StorageError{Op: "put " + category.String(), Err: err}
	}
	return nil
}

func (s *sqliteStore) AppendIfAbsent(ctx context.Context, category uniquevalue.Category, newValue string) ([]string, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	mu, _ := s.locks.LoadOrCompute(category.String(), func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	defer mu.Unlock()

	var result []string
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rec, err := s.fetch(ctx, tx, category)
		if err != nil {
			return err
		}

		var current []string
		if rec != nil {
			if current, err = decodeValues(rec.Values); err != nil {
				return err
			}
		}

		if uniquevalue.Contains(current, newValue) {
			result = current
			return nil
		}

		result = append(current, newValue)
		return s.upsert(ctx, tx, category, result)
	})
	if err != nil {
		return nil, &StorageError{Op: "append " + category.String(), Err: err}
	}
	if result == nil {
		result = []string{}
	}
	return result, nil
}

func (s *sqliteStore) GetAll(ctx context.Context) (uniquevalue.Set, error) {
	var recs []record
	if err := s.db.NewSelect().Model(&recs).Scan(ctx); err != nil {
		return nil, &StorageError{Op: "get all", Err: err}
	}

	set := make(uniquevalue.Set, len(recs))
	for _, rec := range recs {
		values, err := decodeValues(rec.Values)
		if err != nil {
			return nil, &StorageError{Op: "decode " + rec.Category, Err: err}
		}
		set[uniquevalue.Category(rec.Category)] = values
	}
	return set, nil
}

func (s *sqliteStore) LastUpdated(ctx context.Context, category uniquevalue.Category) (time.Time, error) {
	if err := category.Validate(); err != nil {
		return time.Time{}, err
	}

	rec, err := s.fetch(ctx, s.db, category)
	if err != nil {
		return time.Time{}, &StorageError{Op: "last updated " + category.String(), Err: err}
	}
	if rec == nil {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, rec.LastUpdated)
	if err != nil {
		return time.Time{}, &StorageError{Op: "parse timestamp " + category.String(), Err: err}
	}
	return ts, nil
}

func (s *sqliteStore) Clear(ctx context.Context) error {
	if _, err := s.db.NewDelete().
		Model((*record)(nil)).
		Where("1 = 1").
		Exec(ctx); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	s.logger.Debug("cleared all unique value records")
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// fetch returns the row for a category, or nil when the record is absent.
func (s *sqliteStore) fetch(ctx context.Context, db bun.IDB, category uniquevalue.Category) (*record, error) {
	rec := new(record)
	err := db.NewSelect().
		Model(rec).
		Where("category = ?", category.String()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *sqliteStore) upsert(ctx context.Context, db bun.IDB, category uniquevalue.Category, values []string) error {
	encoded, err := encodeValues(values)
	if err != nil {
		return err
	}

	rec := &record{
		Category:    category.String(),
		Values:      encoded,
		LastUpdated: s.clock.Now().UTC().Format(time.RFC3339),
	}
	_, err = db.NewInsert().
		Model(rec).
		On("CONFLICT (category) DO UPDATE").
		Set(`"values" = EXCLUDED."values"`).
		Set(`last_updated = EXCLUDED.last_updated`).
		Exec(ctx)
	return err
}

func decodeValues(encoded string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func encodeValues(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
