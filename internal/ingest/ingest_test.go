package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/salt"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/pkg/logger"
)

func testService(t *testing.T, watchDir, outputDir string, evalCfg config.EvaluationConfig) (*Service, *sqlite.TranscriptStorage, *sqlite.EvaluationStorage) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	storage := sqlite.NewTranscriptStorage(db, log)
	evaluations := sqlite.NewEvaluationStorage(db, log)

	svc := NewService(context.Background(), salt.NewProcessor(log), storage, evaluations, nil, config.IngestConfig{
		Enabled:          true,
		WatchDir:         watchDir,
		ScanIntervalSecs: 3600,
		Extensions:       []string{".txt"},
	}, evalCfg, outputDir, log)

	return svc, storage, evaluations
}

func TestProcessFile(t *testing.T) {
	watchDir := t.TempDir()
	path := filepath.Join(watchDir, "Session 1 (Descript generated).txt")
	if err := os.WriteFile(path, []byte("[00:00:05] P: Hello there.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, storage, _ := testService(t, watchDir, "", config.EvaluationConfig{})

	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := storage.GetBySourcePath(path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("transcript not stored")
	}
	if got.Title != "Session 1" {
		t.Errorf("title = %q", got.Title)
	}
	if !strings.Contains(got.Content, "-0:05") || !strings.Contains(got.Content, "P: Hello there.") {
		t.Errorf("unexpected content:\n%s", got.Content)
	}
}

func TestProcessFile_SkipsAlreadyIngested(t *testing.T) {
	watchDir := t.TempDir()
	path := filepath.Join(watchDir, "a.txt")
	if err := os.WriteFile(path, []byte("[00:00:05] P: Hi.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, storage, _ := testService(t, watchDir, "", config.EvaluationConfig{})

	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	records, err := storage.GetTranscripts(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record after double ingest, got %d", len(records))
	}
}

func TestScan_FiltersExtensions(t *testing.T) {
	watchDir := t.TempDir()
	for _, name := range []string{"a.txt", "b.pdf", "c.tmp"} {
		if err := os.WriteFile(filepath.Join(watchDir, name), []byte("[00:00:05] P: Hi.\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	svc, storage, _ := testService(t, watchDir, "", config.EvaluationConfig{})
	svc.scan()

	records, err := storage.GetTranscripts(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only .txt to be ingested, got %d records", len(records))
	}
	if filepath.Base(records[0].SourcePath) != "a.txt" {
		t.Errorf("wrong file ingested: %s", records[0].SourcePath)
	}
}

func TestProcessFile_EvaluatesAgainstReference(t *testing.T) {
	watchDir := t.TempDir()
	referenceDir := t.TempDir()
	path := filepath.Join(watchDir, "Session 3.txt")
	if err := os.WriteFile(path, []byte("[00:00:05] P: Hello there.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, storage, evaluations := testService(t, watchDir, "", config.EvaluationConfig{
		Enabled:          true,
		ReferenceDir:     referenceDir,
		PassingThreshold: 0.5,
	})

	// Reference matches what the engine will produce, so the score is perfect.
	reference := strings.Join([]string{
		"Session 3",
		"",
		"-0:05",
		"P: Hello there.",
		"",
		salt.EndMarker,
	}, "\n")
	if err := os.WriteFile(filepath.Join(referenceDir, "Session 3.slt"), []byte(reference), 0o644); err != nil {
		t.Fatalf("write reference: %v", err)
	}

	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("process: %v", err)
	}

	record, err := storage.GetBySourcePath(path)
	if err != nil || record == nil {
		t.Fatalf("get transcript: %v", err)
	}

	evals, err := evaluations.GetEvaluationsByTranscript(record.ID)
	if err != nil {
		t.Fatalf("get evaluations: %v", err)
	}
	if len(evals) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(evals))
	}
	if evals[0].OverallScore != 1.0 {
		t.Errorf("overall = %v against identical reference", evals[0].OverallScore)
	}
	if !evals[0].Passed {
		t.Error("expected evaluation to pass")
	}
}

func TestProcessFile_NoReferenceNoEvaluation(t *testing.T) {
	watchDir := t.TempDir()
	path := filepath.Join(watchDir, "Session 4.txt")
	if err := os.WriteFile(path, []byte("[00:00:05] P: Hi.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, storage, evaluations := testService(t, watchDir, "", config.EvaluationConfig{
		Enabled:      true,
		ReferenceDir: t.TempDir(),
	})

	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("process: %v", err)
	}

	record, err := storage.GetBySourcePath(path)
	if err != nil || record == nil {
		t.Fatalf("get transcript: %v", err)
	}
	evals, err := evaluations.GetEvaluationsByTranscript(record.ID)
	if err != nil {
		t.Fatalf("get evaluations: %v", err)
	}
	if len(evals) != 0 {
		t.Errorf("expected no evaluations without a reference, got %d", len(evals))
	}
}

func TestProcessFile_WritesOutput(t *testing.T) {
	watchDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(watchDir, "Session 2.txt")
	if err := os.WriteFile(path, []byte("[00:00:05] P: Hello.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, _, _ := testService(t, watchDir, outputDir, config.EvaluationConfig{})
	if err := svc.ProcessFile(path); err != nil {
		t.Fatalf("process: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "Session 2.slt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "P: Hello.") {
		t.Errorf("output content:\n%s", data)
	}
}
