package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/speechpath/saltd/pkg/logger"
)

func testStorage(t *testing.T) *TranscriptStorage {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	db, err := Open(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewTranscriptStorage(db, log)
}

func testRecord(sourcePath string) *TranscriptRecord {
	return &TranscriptRecord{
		SourcePath: sourcePath,
		Title:      "Session 1",
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		RawContent: "[00:00:05] P: Hello.",
		Content:    "Session 1\n\n-0:05\nP: Hello.",
	}
}

func TestStoreAndGetTranscript(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.StoreTranscript(testRecord("/in/a.txt"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := storage.GetTranscript(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.SourcePath != "/in/a.txt" || got.Title != "Session 1" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.IsRefined {
		t.Error("new record must not be marked refined")
	}
}

func TestGetTranscript_NotFound(t *testing.T) {
	storage := testStorage(t)

	got, err := storage.GetTranscript(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing id, got %+v", got)
	}
}

func TestGetBySourcePath(t *testing.T) {
	storage := testStorage(t)

	if _, err := storage.StoreTranscript(testRecord("/in/a.txt")); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := storage.GetBySourcePath("/in/a.txt")
	if err != nil {
		t.Fatalf("get by source path: %v", err)
	}
	if got == nil {
		t.Fatal("expected record for known source path")
	}

	missing, err := storage.GetBySourcePath("/in/other.txt")
	if err != nil {
		t.Fatalf("get by source path: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown source path, got %+v", missing)
	}
}

func TestRefinementLifecycle(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.StoreTranscript(testRecord("/in/a.txt"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	pending, err := storage.GetUnrefined(10)
	if err != nil {
		t.Fatalf("get unrefined: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("expected the stored record to be pending, got %v", pending)
	}

	if err := storage.UpdateRefined(id, "refined text"); err != nil {
		t.Fatalf("update refined: %v", err)
	}

	pending, err = storage.GetUnrefined(10)
	if err != nil {
		t.Fatalf("get unrefined: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("refined record must not be pending, got %v", pending)
	}

	got, err := storage.GetTranscript(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsRefined || got.ContentRefined != "refined text" {
		t.Errorf("unexpected refined record: %+v", got)
	}
}

func TestMarkRefineFailed(t *testing.T) {
	storage := testStorage(t)

	id, err := storage.StoreTranscript(testRecord("/in/a.txt"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := storage.MarkRefineFailed(id, "empty response from model"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	pending, err := storage.GetUnrefined(10)
	if err != nil {
		t.Fatalf("get unrefined: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed record must not be retried, got %v", pending)
	}

	got, err := storage.GetTranscript(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RefineError != "empty response from model" {
		t.Errorf("refine error = %q", got.RefineError)
	}
}

func TestGetTranscripts_Pagination(t *testing.T) {
	storage := testStorage(t)

	for i, path := range []string{"/in/a.txt", "/in/b.txt", "/in/c.txt"} {
		rec := testRecord(path)
		rec.CreatedAt = rec.CreatedAt.Add(time.Duration(i) * time.Minute)
		if _, err := storage.StoreTranscript(rec); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	page, err := storage.GetTranscripts(2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page))
	}
	// Newest first.
	if page[0].SourcePath != "/in/c.txt" {
		t.Errorf("expected newest record first, got %q", page[0].SourcePath)
	}
}
