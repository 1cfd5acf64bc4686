package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/openwallet-labs/defi-agent/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmp := t.TempDir()
	store, err := Open(filepath.Join(tmp, "history.db"), filepath.Join(tmp, "history.lock"))
	if err != nil {
		t.Fatalf("Open history failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	store := openTestStore(t)
	rec, err := store.Record("0xabc", model.TransactionRecord{
		ChainID: 84532,
		Verb:    "swap",
		Token:   "usdc",
		Amount:  "10",
		Status:  StatusSimulated,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if rec.Direction != DirectionOutgoing {
		t.Fatalf("default direction: %q", rec.Direction)
	}
	if _, err := time.Parse(time.RFC3339, rec.CreatedAt); err != nil {
		t.Fatalf("created_at not RFC3339: %q", rec.CreatedAt)
	}
}

func TestListNewestFirstAndDirectionFilter(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, direction := range []string{DirectionOutgoing, DirectionIncoming, DirectionOutgoing} {
		_, err := store.Record("0xabc", model.TransactionRecord{
			ChainID:   84532,
			Direction: direction,
			Status:    StatusConfirmed,
			Amount:    "1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := store.List("0xabc", "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].CreatedAt != base.Add(2*time.Hour).Format(time.RFC3339) {
		t.Fatalf("expected newest first, got %q", all[0].CreatedAt)
	}

	incoming, err := store.List("0xabc", DirectionIncoming, 10)
	if err != nil {
		t.Fatalf("List incoming failed: %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("expected 1 incoming record, got %d", len(incoming))
	}

	other, err := store.List("0xother", "", 10)
	if err != nil {
		t.Fatalf("List other failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for other address, got %d", len(other))
	}
}

func TestUpdateStatus(t *testing.T) {
	store := openTestStore(t)
	rec, err := store.Record("0xabc", model.TransactionRecord{ChainID: 84532, Status: StatusPending})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := store.UpdateStatus(rec.ID, StatusConfirmed, "0xhash"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	list, err := store.List("0xabc", "", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list[0].Status != StatusConfirmed || list[0].Hash != "0xhash" {
		t.Fatalf("unexpected record %+v", list[0])
	}

	if err := store.UpdateStatus("missing-id", StatusFailed, ""); err == nil {
		t.Fatal("expected error for unknown id")
	}
}
