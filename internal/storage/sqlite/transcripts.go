package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/speechpath/saltd/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Error  = logger.Error
)

// TranscriptRecord represents a processed transcript in the database
type TranscriptRecord struct {
	ID             int64     `json:"id"`
	SourcePath     string    `json:"source_path"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"timestamp"`
	RawContent     string    `json:"raw_content"`
	Content        string    `json:"content"`
	IsRefined      bool      `json:"is_refined"`
	ContentRefined string    `json:"content_refined,omitempty"`
	RefineError    string    `json:"refine_error,omitempty"`
}

// TranscriptStorage handles storage of transcript records
type TranscriptStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTranscriptStorage creates a new SQLite transcript storage
func NewTranscriptStorage(db *sql.DB, logger *logger.Logger) *TranscriptStorage {
	storage := &TranscriptStorage{
		db:     db,
		logger: logger.Named("sqlite-tx"),
	}

	if err := storage.initDB(); err != nil {
		logger.Error("Failed to initialize transcript storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *TranscriptStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_path TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			raw_content TEXT NOT NULL,
			content TEXT NOT NULL,
			is_refined BOOLEAN NOT NULL,
			content_refined TEXT,
			refine_error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transcripts_is_refined ON transcripts(is_refined)`)
	if err != nil {
		return fmt.Errorf("failed to create is_refined index: %w", err)
	}

	return nil
}

// StoreTranscript stores a transcript record
func (s *TranscriptStorage) StoreTranscript(record *TranscriptRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO transcripts
		(source_path, title, created_at, raw_content, content, is_refined, content_refined, refine_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SourcePath,
		record.Title,
		record.CreatedAt.Format(time.RFC3339),
		record.RawContent,
		record.Content,
		record.IsRefined,
		record.ContentRefined,
		record.RefineError,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transcript: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// scanTranscript scans one row into a TranscriptRecord
func scanTranscript(scan func(...any) error) (*TranscriptRecord, error) {
	var record TranscriptRecord
	var createdAt string
	var contentRefined, refineError sql.NullString

	if err := scan(
		&record.ID,
		&record.SourcePath,
		&record.Title,
		&createdAt,
		&record.RawContent,
		&record.Content,
		&record.IsRefined,
		&contentRefined,
		&refineError,
	); err != nil {
		return nil, fmt.Errorf("failed to scan transcript: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	record.CreatedAt = parsed

	if contentRefined.Valid {
		record.ContentRefined = contentRefined.String
	}
	if refineError.Valid {
		record.RefineError = refineError.String
	}

	return &record, nil
}

const transcriptColumns = `id, source_path, title, created_at, raw_content, content, is_refined, content_refined, refine_error`

// GetTranscript returns a single transcript by ID, or nil when not found
func (s *TranscriptStorage) GetTranscript(id int64) (*TranscriptRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`, id)

	record, err := scanTranscript(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// GetTranscripts returns all transcripts with pagination
func (s *TranscriptStorage) GetTranscripts(limit, offset int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+`
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var records []*TranscriptRecord
	for rows.Next() {
		record, err := scanTranscript(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetBySourcePath returns the transcript ingested from the given source
// file, or nil when the file has not been ingested yet.
func (s *TranscriptStorage) GetBySourcePath(path string) (*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+` FROM transcripts WHERE source_path = ? LIMIT 1`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript by source path: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTranscript(rows.Scan)
}

// GetUnrefined retrieves a batch of transcripts awaiting refinement
func (s *TranscriptStorage) GetUnrefined(batchSize int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+`
		FROM transcripts
		WHERE is_refined = 0 AND refine_error = ''
		ORDER BY created_at ASC
		LIMIT ?`,
		batchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unrefined transcripts: %w", err)
	}
	defer rows.Close()

	var records []*TranscriptRecord
	for rows.Next() {
		record, err := scanTranscript(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// UpdateRefined stores the refined content for a transcript
func (s *TranscriptStorage) UpdateRefined(id int64, contentRefined string) error {
	_, err := s.db.Exec(
		`UPDATE transcripts
		SET content_refined = ?, is_refined = 1, refine_error = ''
		WHERE id = ?`,
		contentRefined,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update refined transcript: %w", err)
	}

	return nil
}

// MarkRefineFailed records a refinement failure so the batch loop does not
// retry the transcript forever
func (s *TranscriptStorage) MarkRefineFailed(id int64, reason string) error {
	_, err := s.db.Exec(
		`UPDATE transcripts SET refine_error = ? WHERE id = ?`,
		reason,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transcript refinement failed: %w", err)
	}

	return nil
}
