// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads press-release attachments and records them in
// the fixture catalog.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/msit-dl/internal/board"
	"github.com/pdiddy/msit-dl/internal/catalog"
	"github.com/pdiddy/msit-dl/pkg/types"
)

const metadataDir = "metadata"

// minFileSize is the smallest plausible document. The download endpoint
// answers bad parameters with a tiny HTML error page and HTTP 200, so short
// bodies are treated as failures.
const minFileSize = 100

// BatchResult holds the outcome of a fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int

	// ByFormat counts files present on disk after the run (downloaded
	// plus skipped) per extension.
	ByFormat map[string]int

	// Articles is the number of unique articles processed.
	Articles int
}

// Total returns the total number of attachments processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Engine drives the scrape-then-download loop. It runs strictly
// sequentially; pacing comes from cfg.Delay and the client's rate limiter.
type Engine struct {
	board   *board.Client
	catalog *catalog.Store
	cfg     types.FetchConfig
	formats map[string]bool
}

// NewEngine returns an engine for b. cat may be nil, in which case no
// manifest records are written.
func NewEngine(b *board.Client, cat *catalog.Store, cfg types.FetchConfig) *Engine {
	if cfg.Pages <= 0 {
		cfg.Pages = 3
	}
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "msit-docs"
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"hwp", "hwpx", "odt"}
	}

	formats := make(map[string]bool, len(cfg.Formats))
	for _, f := range cfg.Formats {
		formats[strings.ToLower(strings.TrimSpace(f))] = true
	}

	return &Engine{board: b, catalog: cat, cfg: cfg, formats: formats}
}

// CollectArticleIDs scans the configured listing pages and returns the
// unique article IDs in ascending order. Pages that fail to fetch are
// reported on w and skipped.
func (e *Engine) CollectArticleIDs(ctx context.Context, w io.Writer) ([]string, error) {
	seen := map[string]bool{}
	var all []string

	for i := 0; i < e.cfg.Pages; i++ {
		page := e.cfg.StartPage + i
		if i > 0 {
			if err := sleepCtx(ctx, e.cfg.Delay); err != nil {
				return all, err
			}
		}

		ids, err := e.board.ArticleIDs(ctx, page)
		if err != nil {
			fmt.Fprintf(w, "  page %d: %v\n", page, err)
			continue
		}
		fmt.Fprintf(w, "  page %d: %d articles\n", page, len(ids))

		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}

	board.SortIDs(all)
	return all, nil
}

// Run scans the configured listing pages and downloads every matching
// attachment that is not already on disk. It continues after individual
// failures and stops only on context cancellation.
func (e *Engine) Run(ctx context.Context, w io.Writer) (BatchResult, error) {
	result := BatchResult{ByFormat: map[string]int{}}

	for _, dir := range []string{
		e.cfg.OutDir,
		filepath.Join(e.cfg.OutDir, metadataDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return result, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(w, "Scanning %d pages of MSIT press releases...\n", e.cfg.Pages)
	ids, err := e.CollectArticleIDs(ctx, w)
	if err != nil {
		return result, err
	}
	fmt.Fprintf(w, "\nFound %d unique articles. Checking for files...\n", len(ids))

	for i, id := range ids {
		if err := sleepCtx(ctx, e.cfg.Delay); err != nil {
			return result, err
		}

		fmt.Fprintf(w, "[%d/%d] article %s: ", i+1, len(ids), id)

		article, err := e.board.Article(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "%v\n", err)
			continue
		}
		result.Articles++

		if len(article.Attachments) == 0 {
			fmt.Fprintln(w, "no downloadable files")
			continue
		}

		exts := make([]string, 0, len(article.Attachments))
		for _, att := range article.Attachments {
			exts = append(exts, att.Ext)
		}
		fmt.Fprintf(w, "files: %s\n", strings.Join(exts, ", "))

		wroteAny := false
		for _, att := range article.Attachments {
			if !e.formats[att.Ext] {
				continue
			}

			outPath := e.fixturePath(id, att.Ext)
			if _, err := os.Stat(outPath); err == nil {
				fmt.Fprintf(w, "  %s: already exists, skipping\n", att.Ext)
				result.Skipped++
				result.ByFormat[att.Ext]++
				continue
			}

			fmt.Fprintf(w, "  downloading %s... ", att.Ext)
			size, err := e.downloadTo(ctx, att, outPath)
			if err != nil {
				fmt.Fprintf(w, "failed: %v\n", err)
				result.Failed++
				continue
			}
			fmt.Fprintf(w, "ok (%d bytes)\n", size)
			result.Downloaded++
			result.ByFormat[att.Ext]++
			wroteAny = true

			e.record(ctx, w, article, att, outPath, size)
		}

		if wroteAny {
			if err := e.writeMetadata(article); err != nil {
				fmt.Fprintf(w, "  warning: metadata write failed: %v\n", err)
			}
		}
	}

	fmt.Fprintf(w, "\nDone. %d downloaded, %d skipped, %d failed", result.Downloaded, result.Skipped, result.Failed)
	fmt.Fprintf(w, " (%s)\n", formatCounts(result.ByFormat))
	fmt.Fprintf(w, "Files saved to: %s\n", e.cfg.OutDir)
	return result, nil
}

// fixturePath returns the output path for one attachment: msit-<id>.<ext>
// under the fixture directory.
func (e *Engine) fixturePath(articleID, ext string) string {
	return filepath.Join(e.cfg.OutDir, fmt.Sprintf("msit-%s.%s", articleID, ext))
}

// downloadTo streams one attachment into destPath via a temp file renamed
// on success, returning the byte count. A body shorter than minFileSize is
// an error and leaves nothing behind.
func (e *Engine) downloadTo(ctx context.Context, att types.Attachment, destPath string) (int64, error) {
	resp, err := e.board.DownloadAttachment(ctx, att)
	if err != nil {
		return 0, err
	}
	body := resp.RawBody()
	defer body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	size, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if size < minFileSize {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("response too short (%d bytes), not a document", size)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return size, nil
}

// record writes the fixture into the catalog. Catalog failures do not undo
// a completed download; they only warn.
func (e *Engine) record(ctx context.Context, w io.Writer, article *types.Article, att types.Attachment, outPath string, size int64) {
	if e.catalog == nil {
		return
	}
	f := types.Fixture{
		ArticleID:  article.ID,
		Format:     att.Ext,
		Path:       filepath.Base(outPath),
		Size:       size,
		Title:      article.Title,
		AtchFileNo: att.AtchFileNo,
		FileOrd:    att.FileOrd,
		FetchedAt:  time.Now(),
	}
	if err := e.catalog.Record(ctx, f); err != nil {
		fmt.Fprintf(w, "  warning: %v\n", err)
	}
}

// writeMetadata writes the article's scraped record as a YAML sidecar at
// metadata/msit-<id>.yaml.
func (e *Engine) writeMetadata(article *types.Article) error {
	data, err := yaml.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshaling article %s: %w", article.ID, err)
	}
	path := filepath.Join(e.cfg.OutDir, metadataDir, fmt.Sprintf("msit-%s.yaml", article.ID))
	return os.WriteFile(path, data, 0o644)
}

// Scan enumerates the configured pages and prints each article's
// downloadable attachments without writing anything.
func (e *Engine) Scan(ctx context.Context, w io.Writer) error {
	fmt.Fprintf(w, "Scanning %d pages of MSIT press releases...\n", e.cfg.Pages)
	ids, err := e.CollectArticleIDs(ctx, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFound %d unique articles.\n", len(ids))

	for _, id := range ids {
		if err := sleepCtx(ctx, e.cfg.Delay); err != nil {
			return err
		}
		article, err := e.board.Article(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "article %s: %v\n", id, err)
			continue
		}
		if len(article.Attachments) == 0 {
			fmt.Fprintf(w, "article %s: no downloadable files\n", id)
			continue
		}
		for _, att := range article.Attachments {
			marker := " "
			if e.formats[att.Ext] {
				marker = "*"
			}
			fmt.Fprintf(w, "article %s: %s %s (atchFileNo=%s fileOrd=%s)\n",
				id, marker, att.Ext, att.AtchFileNo, att.FileOrd)
		}
	}
	return nil
}

// formatCounts renders per-format totals as "3 hwp, 1 hwpx, 0 odt" in a
// stable order.
func formatCounts(byFormat map[string]int) string {
	order := []string{"hwp", "hwpx", "odt"}
	var parts []string
	for _, f := range order {
		parts = append(parts, fmt.Sprintf("%d %s", byFormat[f], f))
	}
	var unknown []string
	for f := range byFormat {
		known := false
		for _, o := range order {
			if f == o {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, f)
		}
	}
	sort.Strings(unknown)
	for _, f := range unknown {
		parts = append(parts, fmt.Sprintf("%d %s", byFormat[f], f))
	}
	return strings.Join(parts, ", ")
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
