package seen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "seen.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", store.Len())
	}
}

func TestFileStoreCorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected error for corrupt state file")
	} else if !strings.Contains(err.Error(), "corrupt") {
		t.Fatalf("error %q should mention corruption", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	ctx := context.Background()

	store, err := OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	if err := store.MarkSeen(ctx, "https://example.com/ep1", at); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	isSeen, err := reopened.IsSeen(ctx, "https://example.com/ep1")
	if err != nil {
		t.Fatalf("is seen failed: %v", err)
	}
	if !isSeen {
		t.Fatalf("expected id to survive a save/load round trip")
	}
}

func TestFileStoreMarkSeenOverwrites(t *testing.T) {
	store, err := OpenFile(filepath.Join(t.TempDir(), "seen.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ctx := context.Background()

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if err := store.MarkSeen(ctx, "id", old); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}
	if err := store.MarkSeen(ctx, "id", time.Now().UTC()); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	// The fresh timestamp wins, so a 14 day retention keeps the record.
	evicted, err := store.EvictOlderThan(ctx, 14*24*time.Hour)
	if err != nil {
		t.Fatalf("evict failed: %v", err)
	}
	if evicted != 0 {
		t.Fatalf("expected no evictions, got %d", evicted)
	}
}

func TestFileStoreEvictOlderThan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	store, err := OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.MarkSeen(ctx, "stale", now.Add(-15*24*time.Hour)); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}
	if err := store.MarkSeen(ctx, "fresh", now.Add(-time.Hour)); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	evicted, err := store.EvictOlderThan(ctx, 14*24*time.Hour)
	if err != nil {
		t.Fatalf("evict failed: %v", err)
	}
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if isSeen, _ := reopened.IsSeen(ctx, "stale"); isSeen {
		t.Fatalf("evicted id should be eligible for redelivery")
	}
	if isSeen, _ := reopened.IsSeen(ctx, "fresh"); !isSeen {
		t.Fatalf("fresh id should still be seen")
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")
	store, err := OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ctx := context.Background()
	if err := store.MarkSeen(ctx, "id", time.Now().UTC()); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "seen.json" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only seen.json, got %v", names)
	}
}
