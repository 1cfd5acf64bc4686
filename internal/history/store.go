// Package history persists the local transaction log: every submitted,
// simulated, or failed action the console has seen for an address.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	uuid "github.com/satori/go.uuid"
	_ "modernc.org/sqlite"

	"github.com/openwallet-labs/defi-agent/internal/model"
)

// Directions recorded per entry.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Statuses recorded per entry.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusSimulated = "simulated"
)

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history sqlite: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS tx_history (
			id TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			chain_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_history_address_created ON tx_history(address, created_at DESC);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init history schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath), now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a new entry, assigning an id and timestamp when absent,
// and returns the stored record.
func (s *Store) Record(address string, rec model.TransactionRecord) (model.TransactionRecord, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return model.TransactionRecord{}, fmt.Errorf("record history: missing address")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewV4().String()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	if rec.Direction == "" {
		rec.Direction = DirectionOutgoing
	}

	locked, err := s.lock.TryLockContext(context.Background(), 5*time.Second)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("lock history store: %w", err)
	}
	if !locked {
		return model.TransactionRecord{}, fmt.Errorf("lock history store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("marshal history record: %w", err)
	}
	createdUnix := s.now().UTC().Unix()
	if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
		createdUnix = t.UTC().Unix()
	}

	_, err = s.db.Exec(`
		INSERT INTO tx_history (id, address, chain_id, direction, status, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, address, rec.ChainID, rec.Direction, rec.Status, createdUnix, payload)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("record history: %w", err)
	}
	return rec, nil
}

// UpdateStatus rewrites the status (and hash, when provided) of an entry.
func (s *Store) UpdateStatus(id, status, hash string) error {
	var payload []byte
	if err := s.db.QueryRow("SELECT payload FROM tx_history WHERE id = ?", id).Scan(&payload); err != nil {
		return fmt.Errorf("history entry not found: %s", id)
	}
	var rec model.TransactionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fmt.Errorf("decode history payload: %w", err)
	}
	rec.Status = status
	if hash != "" {
		rec.Hash = hash
	}
	updated, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history payload: %w", err)
	}
	if _, err := s.db.Exec("UPDATE tx_history SET status = ?, payload = ? WHERE id = ?", status, updated, id); err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	return nil
}

// List returns entries for an address, newest first. Direction filters when
// non-empty.
func (s *Store) List(address, direction string, limit int) ([]model.TransactionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows *sql.Rows
		err  error
	)
	if strings.TrimSpace(direction) == "" {
		rows, err = s.db.Query(
			"SELECT payload FROM tx_history WHERE address = ? ORDER BY created_at DESC LIMIT ?",
			address, limit)
	} else {
		rows, err = s.db.Query(
			"SELECT payload FROM tx_history WHERE address = ? AND direction = ? ORDER BY created_at DESC LIMIT ?",
			address, direction, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]model.TransactionRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var rec model.TransactionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return records, nil
}
