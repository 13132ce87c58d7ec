// Package ingest watches a directory for new transcript exports and feeds
// them through the normalization engine into storage.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/speechpath/saltd/internal/config"
	"github.com/speechpath/saltd/internal/evaluation"
	"github.com/speechpath/saltd/internal/extract"
	"github.com/speechpath/saltd/internal/salt"
	"github.com/speechpath/saltd/internal/storage/sqlite"
	"github.com/speechpath/saltd/internal/websocket"
	"github.com/speechpath/saltd/pkg/logger"
)

// Service scans the watch directory on an interval and processes any file
// it has not seen before. Dedup is by source path in storage, so restarts
// never reprocess old files.
type Service struct {
	ctx         context.Context
	cancel      context.CancelFunc
	processor   *salt.Processor
	storage     *sqlite.TranscriptStorage
	evaluations *sqlite.EvaluationStorage
	wsServer    *websocket.Server
	logger      *logger.Logger
	config      config.IngestConfig
	evalConfig  config.EvaluationConfig
	outputDir   string
	interval    time.Duration
	wg          sync.WaitGroup
}

// NewService creates a new ingest service
func NewService(
	ctx context.Context,
	processor *salt.Processor,
	storage *sqlite.TranscriptStorage,
	evaluations *sqlite.EvaluationStorage,
	wsServer *websocket.Server,
	cfg config.IngestConfig,
	evalCfg config.EvaluationConfig,
	outputDir string,
	log *logger.Logger,
) *Service {
	svcCtx, svcCancel := context.WithCancel(ctx)

	return &Service{
		ctx:         svcCtx,
		cancel:      svcCancel,
		processor:   processor,
		storage:     storage,
		evaluations: evaluations,
		wsServer:    wsServer,
		logger:      log.Named("ingest"),
		config:      cfg,
		evalConfig:  evalCfg,
		outputDir:   outputDir,
		interval:    time.Duration(cfg.ScanIntervalSecs) * time.Second,
	}
}

// Start starts the scan loop
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Ingest is disabled, not starting")
		return nil
	}

	if _, err := os.Stat(s.config.WatchDir); err != nil {
		return fmt.Errorf("watch directory unavailable: %w", err)
	}

	s.logger.Info("Starting ingest loop",
		logger.String("watch_dir", s.config.WatchDir),
		logger.Int("scan_interval_seconds", s.config.ScanIntervalSecs))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// First scan immediately, then on the ticker.
		s.scan()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("Ingest loop stopped due to context cancellation")
				return
			case <-ticker.C:
				s.scan()
			}
		}
	}()
	return nil
}

// Stop stops the scan loop
func (s *Service) Stop() error {
	s.logger.Info("Stopping ingest loop")
	s.cancel()
	s.wg.Wait()
	return nil
}

// scan processes every new file in the watch directory
func (s *Service) scan() {
	entries, err := os.ReadDir(s.config.WatchDir)
	if err != nil {
		s.logger.Error("Failed to read watch directory", logger.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !s.accepted(entry.Name()) {
			continue
		}

		path := filepath.Join(s.config.WatchDir, entry.Name())
		if err := s.ProcessFile(path); err != nil {
			s.logger.Error("Failed to process file",
				logger.Error(err),
				logger.String("path", path))
		}
	}
}

// accepted reports whether the file extension is configured for intake
func (s *Service) accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.config.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ProcessFile runs one source file through extraction and normalization
// and stores the result. Files already in storage are skipped.
func (s *Service) ProcessFile(path string) error {
	existing, err := s.storage.GetBySourcePath(path)
	if err != nil {
		return fmt.Errorf("failed to check for existing transcript: %w", err)
	}
	if existing != nil {
		return nil
	}

	extractor, err := extract.ForPath(path)
	if err != nil {
		return err
	}

	raw, err := extractor.Extract(path)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	content := s.processor.Process(raw, filepath.Base(path))

	record := &sqlite.TranscriptRecord{
		SourcePath: path,
		Title:      firstLine(content),
		CreatedAt:  time.Now().UTC(),
		RawContent: raw,
		Content:    content,
	}

	id, err := s.storage.StoreTranscript(record)
	if err != nil {
		return fmt.Errorf("failed to store transcript: %w", err)
	}
	record.ID = id

	s.logger.Info("Transcript processed",
		logger.Int64("id", id),
		logger.String("source", path),
		logger.String("title", record.Title))

	if err := s.writeOutput(record); err != nil {
		s.logger.Error("Failed to write output file", logger.Error(err))
	}

	s.broadcastProcessed(record)
	s.maybeEvaluate(record)
	return nil
}

// ProcessContent runs already-extracted text through normalization and
// storage. Used for direct uploads, which have no file on disk, so the
// source path is synthesized to keep the dedup column unique.
func (s *Service) ProcessContent(raw, name string) (*sqlite.TranscriptRecord, error) {
	content := s.processor.Process(raw, name)

	record := &sqlite.TranscriptRecord{
		SourcePath: fmt.Sprintf("upload://%s@%d", name, time.Now().UnixNano()),
		Title:      firstLine(content),
		CreatedAt:  time.Now().UTC(),
		RawContent: raw,
		Content:    content,
	}

	id, err := s.storage.StoreTranscript(record)
	if err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}
	record.ID = id

	s.logger.Info("Uploaded transcript processed",
		logger.Int64("id", id),
		logger.String("name", name),
		logger.String("title", record.Title))

	s.broadcastProcessed(record)
	return record, nil
}

// writeOutput writes the formatted transcript next to the other outputs
func (s *Service) writeOutput(record *sqlite.TranscriptRecord) error {
	if s.outputDir == "" {
		return nil
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(record.SourcePath), filepath.Ext(record.SourcePath))
	outPath := filepath.Join(s.outputDir, name+".slt")

	if err := os.WriteFile(outPath, []byte(record.Content+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	s.logger.Debug("Output file written", logger.String("path", outPath))
	return nil
}

// maybeEvaluate scores the transcript against a reference with the same
// base name, when the reference directory holds one.
func (s *Service) maybeEvaluate(record *sqlite.TranscriptRecord) {
	if !s.evalConfig.Enabled || s.evaluations == nil || s.evalConfig.ReferenceDir == "" {
		return
	}

	reference, ok := s.findReference(record.SourcePath)
	if !ok {
		return
	}

	metrics := evaluation.Evaluate(record.Content, reference)
	overall := metrics.Overall()

	eval := &sqlite.EvaluationRecord{
		TranscriptID: record.ID,
		CreatedAt:    time.Now().UTC(),
		OverallScore: overall,
		Passed:       overall >= s.evalConfig.PassingThreshold,
		Metrics:      metrics,
	}

	id, err := s.evaluations.StoreEvaluation(eval)
	if err != nil {
		s.logger.Error("Failed to store evaluation",
			logger.Error(err),
			logger.Int64("transcript_id", record.ID))
		return
	}
	eval.ID = id

	s.logger.Info("Transcript evaluated against reference",
		logger.Int64("transcript_id", record.ID),
		logger.Float64("overall_score", overall),
		logger.Bool("passed", eval.Passed))

	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeEvaluationCompleted,
			Data: map[string]any{
				"id":            eval.ID,
				"transcript_id": record.ID,
				"overall_score": overall,
				"passed":        eval.Passed,
			},
		})
	}
}

// findReference looks for a reference transcript matching the source file's
// base name, preferring already-coded .slt references over plain text.
func (s *Service) findReference(sourcePath string) (string, bool) {
	name := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	for _, ext := range []string{".slt", ".txt"} {
		data, err := os.ReadFile(filepath.Join(s.evalConfig.ReferenceDir, name+ext))
		if err == nil {
			return string(data), true
		}
	}
	return "", false
}

// broadcastProcessed notifies connected clients about a new transcript
func (s *Service) broadcastProcessed(record *sqlite.TranscriptRecord) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeTranscriptProcessed,
		Data: map[string]any{
			"id":    record.ID,
			"title": record.Title,
		},
	})
}

// firstLine returns the first line of the formatted transcript (the title)
func firstLine(content string) string {
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		return content[:idx]
	}
	return content
}
