// Package localstore persists client state (the bearer credential and
// feature toggles) in a local sqlite database. Reads and writes are
// synchronous; storage failures are logged and degrade to absent values so
// session logic never has to handle storage errors.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	atelier "github.com/atelier-market/atelier-go"
)

// tokenKey is the well-known credential key. It is stable across releases;
// renaming it would sign every user out on upgrade.
const tokenKey = "session.token"

var _ atelier.CredentialStore = (*Store)(nil)
var _ atelier.FlagStore = (*Store)(nil)

type record struct {
	bun.BaseModel `bun:"table:client_state,alias:cs"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Store is a durable key/value store over a local sqlite database.
type Store struct {
	db     *bun.DB
	logger atelier.Logger
	now    func() time.Time
}

// Option customizes Store construction.
type Option func(*Store)

// WithLogger overrides the store logger.
func WithLogger(logger atelier.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Open creates or opens the state database at path, creating parent
// directories as needed.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create state directory")
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open state database")
	}

	return OpenDB(sqldb, opts...)
}

// OpenDB wraps an existing sql.DB (e.g. an in-memory sqlite for tests).
func OpenDB(sqldb *sql.DB, opts ...Option) (*Store, error) {
	store := &Store{
		db:     bun.NewDB(sqldb, sqlitedialect.New()),
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.db.NewCreateTable().
		Model((*record)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create state table")
	}

	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Token implements atelier.CredentialStore.
func (s *Store) Token() (string, bool) {
	return s.Get(tokenKey)
}

// SetToken implements atelier.CredentialStore.
func (s *Store) SetToken(token string) {
	s.Set(tokenKey, token)
}

// Clear implements atelier.CredentialStore.
func (s *Store) Clear() {
	s.delete(tokenKey)
}

// Get reads a value by key. A missing key or a storage failure both report
// found=false; failures are logged, never returned.
func (s *Store) Get(key string) (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	rec := new(record)
	err := s.db.NewSelect().
		Model(rec).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("state read failed for %q: %v", key, err)
		}
		return "", false
	}

	return rec.Value, true
}

// Set writes or overwrites a value. Failures are logged and dropped so the
// write stays a no-op from the caller's perspective.
func (s *Store) Set(key, value string) {
	ctx, cancel := s.opContext()
	defer cancel()

	rec := &record{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}

	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		s.logger.Warn("state write failed for %q: %v", key, err)
	}
}

func (s *Store) delete(key string) {
	ctx, cancel := s.opContext()
	defer cancel()

	_, err := s.db.NewDelete().
		Model((*record)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		s.logger.Warn("state delete failed for %q: %v", key, err)
	}
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

type defLogger struct{}

func (defLogger) Debug(format string, args ...any) {}
func (defLogger) Info(format string, args ...any)  {}

func (defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] STATE "+format+"\n", args...)
}

func (defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] STATE "+format+"\n", args...)
}
