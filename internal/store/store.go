// Package store keeps OCR page results in SQLite so interrupted runs can
// pick up where they stopped.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"investnotes/models"
)

// ErrNotFound is returned by GetPage for unknown files.
var ErrNotFound = errors.New("store: page not found")

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	run_id       TEXT NOT NULL,
	filename     TEXT NOT NULL UNIQUE,
	page_num     INTEGER NOT NULL,
	best_method  TEXT NOT NULL,
	best_text    TEXT NOT NULL,
	results_json TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_page_num ON pages(page_num);
`

type Store struct {
	db *sql.DB
}

// NewRunID returns an identifier for one OCR run.
func NewRunID() string {
	return uuid.New().String()
}

// Open opens or creates the database at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

type storedResults struct {
	Methods []string          `json:"methods"`
	Results map[string]string `json:"results"`
}

// SavePage inserts page or replaces the earlier result for the same file.
func (s *Store) SavePage(ctx context.Context, runID string, page *models.PageResult) error {
	raw, err := json.Marshal(storedResults{Methods: page.Methods, Results: page.Results})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (run_id, filename, page_num, best_method, best_text, results_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			run_id = excluded.run_id,
			page_num = excluded.page_num,
			best_method = excluded.best_method,
			best_text = excluded.best_text,
			results_json = excluded.results_json,
			created_at = excluded.created_at`,
		runID, page.Filename, page.PageNum, page.BestMethod, page.BestText, string(raw),
		time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save page %s: %w", page.Filename, err)
	}
	return nil
}

func (s *Store) GetPage(ctx context.Context, filename string) (*models.PageResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT filename, page_num, best_method, best_text, results_json
		FROM pages WHERE filename = ?`, filename)
	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return page, err
}

// ListPages returns every stored page ordered by page number.
func (s *Store) ListPages(ctx context.Context) ([]models.PageResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, page_num, best_method, best_text, results_json
		FROM pages ORDER BY page_num, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.PageResult
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(sc scanner) (*models.PageResult, error) {
	var page models.PageResult
	var raw string
	if err := sc.Scan(&page.Filename, &page.PageNum, &page.BestMethod, &page.BestText, &raw); err != nil {
		return nil, err
	}
	var stored storedResults
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("corrupt results for %s: %w", page.Filename, err)
	}
	page.Methods = stored.Methods
	page.Results = stored.Results
	return &page, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
