package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytlists/internal/shared"
)

// Collection document names.
const (
	UsersDocument     = "users"
	PlaylistsDocument = "playlists"
)

// ErrDocumentNotFound is returned by [Documents.Read] for a document that has never been written.
var ErrDocumentNotFound = errors.New("document not found")

// Documents stores whole serialized collections by name.
//
// Write must replace the document atomically: a concurrent Read sees the old or the new
// content, never a mix.
type Documents interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
}

// FileDocuments keeps each document in <dir>/<name>.json.
type FileDocuments struct {
	dir string
}

// NewFileDocuments creates a [FileDocuments] rooted at dir. The directory is created on first write.
func NewFileDocuments(dir string) *FileDocuments {
	return &FileDocuments{dir: dir}
}

// Path returns the file backing the named document.
func (d *FileDocuments) Path(name string) string {
	return filepath.Join(d.dir, name+".json")
}

func (d *FileDocuments) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write stores data in a temp file next to the target, syncs it, and renames it over the target.
func (d *FileDocuments) Write(name string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, d.Path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// SQLiteDocuments keeps each document as a row of the documents table.
type SQLiteDocuments struct {
	db *sql.DB
}

// NewSQLiteDocuments wraps a database whose migrations have been applied.
func NewSQLiteDocuments(db *sql.DB) *SQLiteDocuments {
	return &SQLiteDocuments{db: db}
}

func (d *SQLiteDocuments) Read(name string) ([]byte, error) {
	var body []byte
	err := d.db.QueryRow("SELECT body FROM documents WHERE name = ?", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	return body, nil
}

func (d *SQLiteDocuments) Write(name string, data []byte) error {
	query := `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := d.db.Exec(query, name, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// OpenDocuments builds the backend selected by cfg. The returned close function releases any
// database handle.
func OpenDocuments(cfg shared.StorageConfig) (Documents, func() error, error) {
	switch cfg.Backend {
	case "", shared.BackendFile:
		return NewFileDocuments(cfg.DataDir), func() error { return nil }, nil
	case shared.BackendSQLite:
		db, err := shared.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if _, err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate %s: %w", cfg.SQLitePath, err)
		}
		return NewSQLiteDocuments(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
