// Package cache is a small sqlite-backed TTL cache for backend responses
// and price reads. Writes are serialized across processes with a file lock.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

type Result struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

// Key builders keep callers from inventing ad-hoc key formats.

func SummaryKey(address string) string { return "summary:" + address }

func PriceKey(chainID int64) string { return "price:eth-usd:" + strconv.FormatInt(chainID, 10) }

func AssetsKey(chainID int64, address string) string {
	return "assets:" + strconv.FormatInt(chainID, 10) + ":" + address
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"CREATE TABLE IF NOT EXISTS agent_cache (key TEXT PRIMARY KEY, value BLOB NOT NULL, created_at_ms INTEGER NOT NULL, ttl_ms INTEGER NOT NULL);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	store := &Store{db: db, lock: flock.New(lockPath), now: time.Now}
	// Expired entries would otherwise accumulate forever.
	_ = store.Prune()
	return store, nil
}

// SetClock overrides the wall clock, for tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune deletes entries whose TTL has fully expired.
func (s *Store) Prune() error {
	if s == nil || s.db == nil {
		return nil
	}
	nowMS := s.now().UTC().UnixMilli()
	if _, err := s.db.Exec("DELETE FROM agent_cache WHERE created_at_ms + ttl_ms < ?", nowMS); err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Get reports hit, staleness, and whether the entry exceeded the stale
// budget. A negative maxStale disables the budget check.
func (s *Store) Get(key string, maxStale time.Duration) (Result, error) {
	var value []byte
	var createdMS, ttlMS int64
	err := s.db.QueryRow("SELECT value, created_at_ms, ttl_ms FROM agent_cache WHERE key = ?", key).
		Scan(&value, &createdMS, &ttlMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{Hit: false}, nil
		}
		return Result{}, fmt.Errorf("cache read: %w", err)
	}

	age := s.now().UTC().Sub(time.UnixMilli(createdMS).UTC())
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlMS) * time.Millisecond
	stale := age > ttl
	tooStale := stale && maxStale >= 0 && age > ttl+maxStale

	return Result{Hit: true, Value: value, Age: age, Stale: stale, TooStale: tooStale}, nil
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	ttlMS := ttl.Milliseconds()
	if ttlMS <= 0 {
		ttlMS = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO agent_cache (key, value, created_at_ms, ttl_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			created_at_ms=excluded.created_at_ms,
			ttl_ms=excluded.ttl_ms
	`, key, value, s.now().UTC().UnixMilli(), ttlMS)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Delete removes one key; missing keys are not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM agent_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
