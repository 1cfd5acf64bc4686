package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	tmp := t.TempDir()
	store, err := Open(filepath.Join(tmp, "cache.db"), filepath.Join(tmp, "cache.lock"))
	if err != nil {
		t.Fatalf("Open cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetFreshStaleTooStale(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	if err := store.Set(SummaryKey("0xabc"), []byte(`{"credits":100}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	res, err := store.Get(SummaryKey("0xabc"), 5*time.Minute)
	if err != nil {
		t.Fatalf("Get fresh failed: %v", err)
	}
	if !res.Hit || res.Stale {
		t.Fatalf("expected fresh hit, got %+v", res)
	}

	store.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
	res, err = store.Get(SummaryKey("0xabc"), 5*time.Minute)
	if err != nil {
		t.Fatalf("Get stale failed: %v", err)
	}
	if !res.Hit || !res.Stale || res.TooStale {
		t.Fatalf("expected stale within budget, got %+v", res)
	}

	store.SetClock(func() time.Time { return base.Add(10 * time.Minute) })
	res, err = store.Get(SummaryKey("0xabc"), 5*time.Minute)
	if err != nil {
		t.Fatalf("Get too stale failed: %v", err)
	}
	if !res.TooStale {
		t.Fatalf("expected too stale, got %+v", res)
	}
}

func TestGetMiss(t *testing.T) {
	store := openTestStore(t)
	res, err := store.Get(PriceKey(11155111), time.Minute)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if res.Hit {
		t.Fatalf("expected miss, got %+v", res)
	}
}

func TestPruneRemovesExpired(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return base })

	if err := store.Set("short", []byte("1"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("long", []byte("2"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	store.SetClock(func() time.Time { return base.Add(time.Minute) })
	if err := store.Prune(); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	res, _ := store.Get("short", -1)
	if res.Hit {
		t.Fatal("expected pruned entry to be gone")
	}
	res, _ = store.Get("long", -1)
	if !res.Hit {
		t.Fatal("expected unexpired entry to survive prune")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	if err := store.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	res, _ := store.Get("k", -1)
	if res.Hit {
		t.Fatal("expected deleted key to miss")
	}
}
