// Package cache is a local key/value store standing in for browser storage.
// Its contents are advisory: the canonical document on the server wins.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/your-org/reconnect/internal/models"
)

const (
	keyRecords  = "personsData"
	keyDocument = "personsJsonData"

	imagePrefix     = "image_"
	imagePathPrefix = "imagePath_"
)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DefaultPath is the cache location under the user cache directory.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "reconnect", "cache.db")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// PutRecords caches the in-memory record set.
func (s *Store) PutRecords(ctx context.Context, records []models.PersonRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return s.Set(ctx, keyRecords, string(data))
}

// Records returns the cached record set, if any.
func (s *Store) Records(ctx context.Context) ([]models.PersonRecord, bool, error) {
	raw, ok, err := s.Get(ctx, keyRecords)
	if err != nil || !ok {
		return nil, false, err
	}
	var records []models.PersonRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, false, fmt.Errorf("decode cached records: %w", err)
	}
	return records, true, nil
}

// PutDocument caches the last serialized canonical document.
func (s *Store) PutDocument(ctx context.Context, doc models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.Set(ctx, keyDocument, string(data))
}

func (s *Store) Document(ctx context.Context) (string, bool, error) {
	return s.Get(ctx, keyDocument)
}

// PutImage caches a data URI preview under the generated filename.
func (s *Store) PutImage(ctx context.Context, filename, dataURI string) error {
	return s.Set(ctx, imagePrefix+filename, dataURI)
}

func (s *Store) Image(ctx context.Context, filename string) (string, bool, error) {
	return s.Get(ctx, imagePrefix+filename)
}

// PutImagePath records where the server stored filename.
func (s *Store) PutImagePath(ctx context.Context, filename, path string) error {
	return s.Set(ctx, imagePathPrefix+filename, path)
}

func (s *Store) ImagePath(ctx context.Context, filename string) (string, bool, error) {
	return s.Get(ctx, imagePathPrefix+filename)
}
