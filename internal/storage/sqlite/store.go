package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/speechpath/saltd/pkg/logger"
	_ "modernc.org/sqlite"
)

// DailyPath returns the database file path for today under the configured
// base directory. A new file per day keeps individual databases small and
// makes archival a file copy.
func DailyPath(basePath string) string {
	today := time.Now().Format("2006-01-02")
	return filepath.Join(basePath, fmt.Sprintf("saltd-%s.db", today))
}

// Open opens the SQLite database at the given path and applies the
// connection and pragma settings used throughout the application.
func Open(dbPath string, log *logger.Logger) (*sql.DB, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
		return nil, fmt.Errorf("failed to set cache size: %w", err)
	}

	return db, nil
}
