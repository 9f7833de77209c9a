// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists the manifest of downloaded fixture files in a
// SQLite database under the fixture directory, so the corpus can be listed
// and summarized without re-scraping the board.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/msit-dl/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "fixtures.db"
)

// Store manages the fixture manifest database.
type Store struct {
	db         *sql.DB
	outDir     string
	maxResults int
}

// NewStore opens or creates the manifest database at
// cfg.OutDir/index/fixtures.db, creating the schema if needed.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.OutDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{
		db:         db,
		outDir:     cfg.OutDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fixtures (
			article_id TEXT NOT NULL,
			format TEXT NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			title TEXT,
			atch_file_no TEXT,
			file_ord TEXT,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (article_id, format)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fixtures_format ON fixtures(format)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts one fixture row. Re-downloading an article's file replaces
// its previous record.
func (s *Store) Record(ctx context.Context, f types.Fixture) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fixtures
			(article_id, format, path, size, title, atch_file_no, file_ord, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(article_id, format) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			title = excluded.title,
			atch_file_no = excluded.atch_file_no,
			file_ord = excluded.file_ord,
			fetched_at = excluded.fetched_at`,
		f.ArticleID, f.Format, f.Path, f.Size, f.Title,
		f.AtchFileNo, f.FileOrd, f.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording fixture %s.%s: %w", f.ArticleID, f.Format, err)
	}
	return nil
}

// Query filters a List call. Zero values mean no filter.
type Query struct {
	// Format restricts results to one extension (hwp, hwpx, odt).
	Format string

	// ArticleID restricts results to one source article.
	ArticleID string

	// Limit caps the number of rows; 0 uses the store default.
	Limit int
}

// List returns fixtures matching q, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]types.Fixture, error) {
	var conds []string
	var args []any
	if q.Format != "" {
		conds = append(conds, "format = ?")
		args = append(args, strings.ToLower(q.Format))
	}
	if q.ArticleID != "" {
		conds = append(conds, "article_id = ?")
		args = append(args, q.ArticleID)
	}

	query := `SELECT article_id, format, path, size, title, atch_file_no, file_ord, fetched_at
		FROM fixtures`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fetched_at DESC, article_id DESC LIMIT ?"

	limit := q.Limit
	if limit <= 0 {
		limit = s.maxResults
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []types.Fixture
	for rows.Next() {
		var f types.Fixture
		var title, atch, ord sql.NullString
		var fetchedAt string
		if err := rows.Scan(&f.ArticleID, &f.Format, &f.Path, &f.Size,
			&title, &atch, &ord, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning fixture row: %w", err)
		}
		f.Title = title.String
		f.AtchFileNo = atch.String
		f.FileOrd = ord.String
		if t, parseErr := time.Parse(time.RFC3339, fetchedAt); parseErr == nil {
			f.FetchedAt = t
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

// Summary holds per-format corpus totals.
type Summary struct {
	// ByFormat maps extension to fixture count.
	ByFormat map[string]int

	// TotalBytes is the combined size of all recorded files.
	TotalBytes int64
}

// Total returns the number of recorded fixtures.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.ByFormat {
		n += c
	}
	return n
}

// Summarize returns per-format counts and the total corpus size.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT format, count(*), coalesce(sum(size), 0) FROM fixtures GROUP BY format`)
	if err != nil {
		return Summary{}, fmt.Errorf("querying summary: %w", err)
	}
	defer rows.Close()

	summary := Summary{ByFormat: map[string]int{}}
	for rows.Next() {
		var format string
		var count int
		var bytes int64
		if err := rows.Scan(&format, &count, &bytes); err != nil {
			return Summary{}, fmt.Errorf("scanning summary row: %w", err)
		}
		summary.ByFormat[format] = count
		summary.TotalBytes += bytes
	}
	return summary, rows.Err()
}

// Export writes all fixture records to OutDir/index/manifest.yaml.
func (s *Store) Export(ctx context.Context) error {
	fixtures, err := s.List(ctx, Query{Limit: 1 << 30})
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(fixtures)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	path := filepath.Join(s.outDir, indexDir, "manifest.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
