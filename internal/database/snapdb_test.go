package database

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/davsnap/internal/model"
)

func openTestDB(t *testing.T) *SnapDB {
	t.Helper()

	sdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := sdb.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return sdb
}

func testSnapshot(t *testing.T, crawledAt time.Time, paths ...string) *model.Snapshot {
	t.Helper()

	size := int64(100)
	children := make([]*model.Node, 0, len(paths))
	for _, p := range paths {
		children = append(children, &model.Node{
			Type: model.KindFile,
			Name: p,
			Path: p,
			Size: &size,
		})
	}

	share, err := model.NewShare("https://drive.example.ch", "AbCdEf123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model.NewSnapshot(share, model.NewRoot(children), crawledAt)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database file with default options", func(t *testing.T) {
		t.Parallel()

		sdb := openTestDB(t)
		if sdb == nil {
			t.Fatal("expected database handle")
		}
	})

	t.Run("refuses missing database without create option", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestSnapDBSaveSnapshot(t *testing.T) {
	t.Parallel()

	sdb := openTestDB(t)
	ctx := context.Background()

	snapshot := testSnapshot(t, time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC), "a.txt", "b.txt")
	id, err := sdb.SaveSnapshot(ctx, snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive row ID, got %d", id)
	}

	got, err := sdb.GetSnapshotByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if got.Fingerprint != snapshot.Fingerprint || got.Files != 2 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if len(got.Root.Children) != 2 {
		t.Errorf("expected tree to survive storage, got %+v", got.Root)
	}
}

func TestSnapDBGetLatestSnapshot(t *testing.T) {
	t.Parallel()

	sdb := openTestDB(t)
	ctx := context.Background()

	t.Run("returns nil for unknown share", func(t *testing.T) {
		got, err := sdb.GetLatestSnapshot(ctx, "NoSuchToken000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("returns the newest of several snapshots", func(t *testing.T) {
		older := testSnapshot(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), "a.txt")
		newer := testSnapshot(t, time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC), "a.txt", "b.txt")
		if _, err := sdb.SaveSnapshot(ctx, older); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := sdb.SaveSnapshot(ctx, newer); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := sdb.GetLatestSnapshot(ctx, newer.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Files != 2 {
			t.Fatalf("expected newest snapshot with 2 files, got %+v", got)
		}
	})
}

func TestSnapDBGetHistory(t *testing.T) {
	t.Parallel()

	sdb := openTestDB(t)
	ctx := context.Background()

	first := testSnapshot(t, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), "a.txt")
	second := testSnapshot(t, time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC), "a.txt", "b.txt")
	for _, s := range []*model.Snapshot{first, second} {
		if _, err := sdb.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := sdb.GetHistory(ctx, first.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Files != 2 || history[1].Files != 1 {
		t.Errorf("expected newest first, got %+v", history)
	}
	if history[0].CrawledAt.IsZero() {
		t.Error("expected parsed crawl timestamp")
	}
	if history[0].Fingerprint == "" {
		t.Error("expected fingerprint in metadata")
	}
}

func TestSnapDBListShares(t *testing.T) {
	t.Parallel()

	sdb := openTestDB(t)
	ctx := context.Background()

	tokens, err := sdb.ListShares(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected empty share list, got %v", tokens)
	}

	snapshot := testSnapshot(t, time.Now(), "a.txt")
	if _, err := sdb.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sdb.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokens, err = sdb.ListShares(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != snapshot.Token {
		t.Errorf("expected one distinct token, got %v", tokens)
	}
}
