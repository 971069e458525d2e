package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// HistoryConfig configures the job history store.
type HistoryConfig struct {
	// Path is the SQLite database file.
	Path string
	// MigrationsPath is the migrations directory in file:// URL format.
	// Default: "file://db/migrations".
	MigrationsPath string
	// BusyTimeoutMS is the SQLite busy timeout in milliseconds.
	BusyTimeoutMS int
}

// DefaultHistoryConfig returns the default history configuration for a
// database file at path.
func DefaultHistoryConfig(path string) HistoryConfig {
	return HistoryConfig{
		Path:           path,
		MigrationsPath: "file://db/migrations",
		BusyTimeoutMS:  5000,
	}
}

// History owns the job history database: the connection, the schema, and
// the repository for reads and writes.
type History struct {
	conn *sql.DB
	repo *Repository
}

// OpenHistory opens (creating if needed) the history database, runs pending
// migrations, and returns the ready store.
func OpenHistory(config HistoryConfig) (*History, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("db: history path is required")
	}
	if config.MigrationsPath == "" {
		config.MigrationsPath = "file://db/migrations"
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("db: creating history directory: %w", err)
		}
	}

	// Migrate on an independent connection: the migrator takes ownership of
	// the connection it is given and closes it.
	if err := MigrateUpFromPath(config.Path, config.MigrationsPath); err != nil {
		return nil, err
	}

	connConfig := DefaultConnectionConfig(config.Path)
	if config.BusyTimeoutMS > 0 {
		connConfig.BusyTimeout = config.BusyTimeoutMS
	}
	conn, err := NewSQLiteConnection(connConfig)
	if err != nil {
		return nil, err
	}

	return &History{conn: conn, repo: NewRepository(conn)}, nil
}

// Repo returns the repository backed by this store.
func (h *History) Repo() *Repository {
	return h.repo
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.conn.Close()
}
