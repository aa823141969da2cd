package history

import (
	"context"
	"path/filepath"
	"testing"

	"scribe/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndRecent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	records := []domain.SessionRecord{
		{ID: "a", SourcePath: "/tmp/a.wav", Mode: domain.ProcessingRemote, TemplateID: "summary", Transcript: "first", Summary: "sum", StartedAt: 1, FinishedAt: 10},
		{ID: "b", SourcePath: "/tmp/b.wav", Mode: domain.ProcessingLocal, Transcript: "second", StartedAt: 2, FinishedAt: 30},
		{ID: "c", SourcePath: "/tmp/c.wav", Mode: domain.ProcessingRemote, Transcript: "third", StartedAt: 3, FinishedAt: 20},
	}
	for _, r := range records {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0] != records[1] {
		t.Fatalf("record not round-tripped: %+v", got[0])
	}
}

func TestSaveReplacesExistingID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	record := domain.SessionRecord{ID: "a", SourcePath: "/tmp/a.wav", Mode: domain.ProcessingRemote, Transcript: "draft", FinishedAt: 1}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	record.Summary = "final"
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Summary != "final" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.sqlite")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Save(context.Background(), domain.SessionRecord{ID: "a", Mode: domain.ProcessingLocal}); err != nil {
		t.Fatalf("save: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Recent(context.Background(), 5)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted record, got %+v %v", got, err)
	}
}
