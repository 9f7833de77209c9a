// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/msit-dl/internal/board"
	"github.com/pdiddy/msit-dl/internal/catalog"
	"github.com/pdiddy/msit-dl/internal/webclient"
	"github.com/pdiddy/msit-dl/pkg/types"
)

// listingPages maps pageIndex to the fn_detail IDs the page advertises.
// Article 30102 appears on both pages to exercise de-duplication.
var listingPages = map[string][]string{
	"1": {"30101", "30102"},
	"2": {"30102", "30103"},
}

// viewPages maps nttSeqNo to the fn_download handlers on the view page.
var viewPages = map[string]string{
	"30101": `<a onclick="fn_download('1001', '1', 'hwp')">a.hwp</a>
	          <a onclick="fn_download('1001', '2', 'pdf')">a.pdf</a>`,
	"30102": `<a onclick="fn_download('1002', '1', 'hwpx')">b.hwpx</a>`,
	"30103": `<a onclick="fn_download('1003', '1', 'odt')">c.odt</a>`,
	"30104": `<p>no files here</p>`,
}

// newBoardServer serves the fake board. Attachment group 1003 answers with
// a short error page body, the way the real endpoint reports bad parameters.
func newBoardServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bbs/list.do":
			ids := listingPages[r.URL.Query().Get("pageIndex")]
			fmt.Fprint(w, "<html><body>")
			for _, id := range ids {
				fmt.Fprintf(w, `<a href="#" onclick="fn_detail(%s)">article</a>`, id)
			}
			fmt.Fprint(w, "</body></html>")
		case "/bbs/view.do":
			ntt := r.URL.Query().Get("nttSeqNo")
			body, ok := viewPages[ntt]
			if !ok {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintf(w, `<html><head><title>article %s</title></head><body>%s</body></html>`, ntt, body)
		case "/ssm/file/fileDown.do":
			r.ParseForm()
			if r.PostFormValue("atchFileNo") == "1003" {
				fmt.Fprint(w, "<html>error</html>")
				return
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			fmt.Fprint(w, strings.Repeat("HWPDOC-BYTES", 20))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestEngine(t *testing.T, tsURL, outDir string, cat *catalog.Store, cfg types.FetchConfig) *Engine {
	t.Helper()
	httpClient, err := webclient.New(tsURL, types.HTTPConfig{Timeout: 10 * time.Second}, 0)
	if err != nil {
		t.Fatalf("webclient.New: %v", err)
	}
	boardCfg := board.DefaultBoard
	boardCfg.BaseURL = tsURL

	cfg.OutDir = outDir
	if cfg.Pages == 0 {
		cfg.Pages = 2
	}
	return NewEngine(board.NewClient(httpClient, boardCfg), cat, cfg)
}

func TestRunDownloadsAndRecords(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	dir := t.TempDir()
	store, err := catalog.NewStore(types.CatalogConfig{OutDir: dir})
	if err != nil {
		t.Fatalf("catalog.NewStore: %v", err)
	}
	defer store.Close()

	engine := newTestEngine(t, ts.URL, dir, store, types.FetchConfig{})
	var buf bytes.Buffer

	result, err := engine.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", result.Downloaded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1 (short body for 30103)", result.Failed)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if result.Articles != 3 {
		t.Errorf("Articles = %d, want 3", result.Articles)
	}
	if result.ByFormat["hwp"] != 1 || result.ByFormat["hwpx"] != 1 || result.ByFormat["odt"] != 0 {
		t.Errorf("ByFormat = %v", result.ByFormat)
	}

	for _, name := range []string{"msit-30101.hwp", "msit-30102.hwpx"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "msit-30103.odt")); err == nil {
		t.Error("failed download should leave no file behind")
	}

	// No temp files left over.
	leftover, _ := filepath.Glob(filepath.Join(dir, ".fetch-*.tmp"))
	if len(leftover) != 0 {
		t.Errorf("temp files left behind: %v", leftover)
	}

	// Metadata sidecars exist for downloaded articles only.
	if _, err := os.Stat(filepath.Join(dir, "metadata", "msit-30101.yaml")); err != nil {
		t.Errorf("expected metadata sidecar for 30101: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "metadata", "msit-30103.yaml")); err == nil {
		t.Error("no sidecar expected for article with no completed download")
	}

	// The pdf attachment is reported but never fetched.
	if strings.Contains(buf.String(), "downloading pdf") {
		t.Error("pdf must not be downloaded")
	}

	fixtures, err := store.List(context.Background(), catalog.Query{})
	if err != nil {
		t.Fatalf("catalog.List: %v", err)
	}
	if len(fixtures) != 2 {
		t.Errorf("catalog rows = %d, want 2", len(fixtures))
	}
	for _, f := range fixtures {
		if f.Title == "" {
			t.Errorf("fixture %s.%s missing title", f.ArticleID, f.Format)
		}
		if f.Size < minFileSize {
			t.Errorf("fixture %s.%s recorded size %d", f.ArticleID, f.Format, f.Size)
		}
	}
}

func TestRunWarnsWhenCatalogRecordFails(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	dir := t.TempDir()
	store, err := catalog.NewStore(types.CatalogConfig{OutDir: dir})
	if err != nil {
		t.Fatalf("catalog.NewStore: %v", err)
	}
	// A closed store fails every Record call.
	store.Close()

	engine := newTestEngine(t, ts.URL, dir, store, types.FetchConfig{})
	var buf bytes.Buffer

	result, err := engine.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2 despite catalog failures", result.Downloaded)
	}
	for _, name := range []string{"msit-30101.hwp", "msit-30102.hwpx"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
	if !strings.Contains(buf.String(), "warning: recording fixture") {
		t.Errorf("expected catalog warning in output:\n%s", buf.String())
	}
}

func TestRunSkipsExisting(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	dir := t.TempDir()
	engine := newTestEngine(t, ts.URL, dir, nil, types.FetchConfig{})

	var buf bytes.Buffer
	if _, err := engine.Run(context.Background(), &buf); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	buf.Reset()
	result, err := engine.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if result.Downloaded != 0 {
		t.Errorf("Downloaded = %d, want 0 on re-run", result.Downloaded)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}
	// Skipped files still count toward the per-format totals.
	if result.ByFormat["hwp"] != 1 || result.ByFormat["hwpx"] != 1 {
		t.Errorf("ByFormat = %v", result.ByFormat)
	}
	if !strings.Contains(buf.String(), "already exists, skipping") {
		t.Error("expected skip message in output")
	}
}

func TestRunFormatFilter(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	dir := t.TempDir()
	engine := newTestEngine(t, ts.URL, dir, nil, types.FetchConfig{Formats: []string{"hwp"}})

	var buf bytes.Buffer
	result, err := engine.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Downloaded != 1 {
		t.Errorf("Downloaded = %d, want 1", result.Downloaded)
	}
	if result.Failed != 0 {
		t.Errorf("Failed = %d, want 0 (odt is outside the format set)", result.Failed)
	}
	if _, err := os.Stat(filepath.Join(dir, "msit-30102.hwpx")); err == nil {
		t.Error("hwpx must not be downloaded when only hwp is requested")
	}
}

func TestRunContinuesAfterPageError(t *testing.T) {
	var pageCalls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bbs/list.do":
			pageCalls++
			if r.URL.Query().Get("pageIndex") == "1" {
				http.Error(w, "blocked", http.StatusForbidden)
				return
			}
			fmt.Fprint(w, `<html><body><a onclick="fn_detail(30104)">a</a></body></html>`)
		case "/bbs/view.do":
			fmt.Fprint(w, `<html><head><title>t</title></head><body><p>no files</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	dir := t.TempDir()
	engine := newTestEngine(t, ts.URL, dir, nil, types.FetchConfig{})

	var buf bytes.Buffer
	result, err := engine.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pageCalls != 2 {
		t.Errorf("pageCalls = %d, want 2 (failed page must not abort the scan)", pageCalls)
	}
	if result.Articles != 1 {
		t.Errorf("Articles = %d, want 1", result.Articles)
	}
	if !strings.Contains(buf.String(), "no downloadable files") {
		t.Error("expected no-files message in output")
	}
}

func TestRunContextCancelled(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	engine := newTestEngine(t, ts.URL, dir, nil, types.FetchConfig{Delay: 10 * time.Millisecond})

	var buf bytes.Buffer
	if _, err := engine.Run(ctx, &buf); err == nil {
		t.Fatal("expected context error, got nil")
	}
}

func TestScanWritesNothing(t *testing.T) {
	ts := newBoardServer(t)
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "never-created")
	engine := newTestEngine(t, ts.URL, dir, nil, types.FetchConfig{})

	var buf bytes.Buffer
	if err := engine.Scan(context.Background(), &buf); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("scan must not create the output directory")
	}
	out := buf.String()
	if !strings.Contains(out, "* hwp") {
		t.Errorf("expected wanted-format marker in output:\n%s", out)
	}
	if !strings.Contains(out, "atchFileNo=1001") {
		t.Errorf("expected download parameters in output:\n%s", out)
	}
}

func TestFormatCounts(t *testing.T) {
	got := formatCounts(map[string]int{"hwp": 3, "hwpx": 1})
	if got != "3 hwp, 1 hwpx, 0 odt" {
		t.Errorf("formatCounts = %q", got)
	}

	// Extensions outside the known set render after it, alphabetically.
	got = formatCounts(map[string]int{"hwp": 1, "zip": 2, "doc": 1})
	if got != "1 hwp, 0 hwpx, 0 odt, 1 doc, 2 zip" {
		t.Errorf("formatCounts = %q", got)
	}
}
