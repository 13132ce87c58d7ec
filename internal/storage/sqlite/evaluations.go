package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/speechpath/saltd/internal/evaluation"
	"github.com/speechpath/saltd/pkg/logger"
)

// EvaluationRecord represents one quality evaluation of a transcript
type EvaluationRecord struct {
	ID           int64              `json:"id"`
	TranscriptID int64              `json:"transcript_id"`
	CreatedAt    time.Time          `json:"timestamp"`
	OverallScore float64            `json:"overall_score"`
	Passed       bool               `json:"passed"`
	Metrics      evaluation.Metrics `json:"metrics"`
}

// EvaluationStorage handles storage of evaluation records
type EvaluationStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewEvaluationStorage creates a new SQLite evaluation storage
func NewEvaluationStorage(db *sql.DB, log *logger.Logger) *EvaluationStorage {
	storage := &EvaluationStorage{
		db:     db,
		logger: log.Named("sqlite-eval"),
	}

	if err := storage.initDB(); err != nil {
		log.Error("Failed to initialize evaluation storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *EvaluationStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS evaluations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			overall_score REAL NOT NULL,
			passed BOOLEAN NOT NULL,
			metrics TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create evaluations table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_evaluations_transcript_id ON evaluations(transcript_id)`)
	if err != nil {
		return fmt.Errorf("failed to create transcript_id index: %w", err)
	}

	return nil
}

// StoreEvaluation stores an evaluation record
func (s *EvaluationStorage) StoreEvaluation(record *EvaluationRecord) (int64, error) {
	metricsJSON, err := json.Marshal(record.Metrics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO evaluations (transcript_id, created_at, overall_score, passed, metrics)
		VALUES (?, ?, ?, ?, ?)`,
		record.TranscriptID,
		record.CreatedAt.Format(time.RFC3339),
		record.OverallScore,
		record.Passed,
		string(metricsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert evaluation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// GetEvaluations returns evaluations with pagination, newest first
func (s *EvaluationStorage) GetEvaluations(limit, offset int) ([]*EvaluationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, transcript_id, created_at, overall_score, passed, metrics
		FROM evaluations
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var records []*EvaluationRecord
	for rows.Next() {
		record, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetEvaluationsByTranscript returns all evaluations for one transcript
func (s *EvaluationStorage) GetEvaluationsByTranscript(transcriptID int64) ([]*EvaluationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, transcript_id, created_at, overall_score, passed, metrics
		FROM evaluations
		WHERE transcript_id = ?
		ORDER BY created_at DESC`,
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations by transcript: %w", err)
	}
	defer rows.Close()

	var records []*EvaluationRecord
	for rows.Next() {
		record, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// scanEvaluation scans one row into an EvaluationRecord
func scanEvaluation(scan func(...any) error) (*EvaluationRecord, error) {
	var record EvaluationRecord
	var createdAt, metricsJSON string

	if err := scan(
		&record.ID,
		&record.TranscriptID,
		&createdAt,
		&record.OverallScore,
		&record.Passed,
		&metricsJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan evaluation: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	record.CreatedAt = parsed

	if err := json.Unmarshal([]byte(metricsJSON), &record.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	return &record, nil
}
