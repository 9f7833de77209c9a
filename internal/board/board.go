// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package board scrapes the MSIT press-release bulletin board. The board
// renders article navigation and attachment downloads entirely through
// JavaScript handlers (fn_detail, fn_download), so extraction is attribute
// scanning with regular expressions over the parsed pages.
package board

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/pdiddy/msit-dl/pkg/types"
)

const (
	listPath     = "/bbs/list.do"
	viewPath     = "/bbs/view.do"
	downloadPath = "/ssm/file/fileDown.do"
)

// DefaultBoard is the MSIT press-release board (보도자료).
var DefaultBoard = types.BoardConfig{
	BaseURL:      "https://www.msit.go.kr",
	SCode:        "user",
	MenuID:       "310",
	ParentMenuID: "121",
	BoardSeqNo:   "96",
}

// fnDetailPattern matches the listing page's article handlers: fn_detail(30123).
var fnDetailPattern = regexp.MustCompile(`fn_detail\((\d+)\)`)

// fnDownloadPattern matches the view page's attachment handlers:
// fn_download('26843', '2', 'hwpx').
var fnDownloadPattern = regexp.MustCompile(`fn_download\('(\d+)',\s*'(\d+)',\s*'(\w+)'\)`)

// Client scrapes one bulletin board.
type Client struct {
	http *resty.Client
	cfg  types.BoardConfig
}

// NewClient wraps http, which must be configured with the board's base URL
// (see webclient.New), for the board identified by cfg.
func NewClient(http *resty.Client, cfg types.BoardConfig) *Client {
	return &Client{http: http, cfg: cfg}
}

// routingParams returns the query parameters every list/view request carries.
func (c *Client) routingParams() map[string]string {
	return map[string]string{
		"sCode":    c.cfg.SCode,
		"mId":      c.cfg.MenuID,
		"mPid":     c.cfg.ParentMenuID,
		"bbsSeqNo": c.cfg.BoardSeqNo,
	}
}

// ArticleIDs fetches listing page and returns the article sequence numbers
// it links to, de-duplicated, in ascending numeric order.
func (c *Client) ArticleIDs(ctx context.Context, page int) ([]string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.routingParams()).
		SetQueryParam("pageIndex", fmt.Sprint(page)).
		Get(listPath)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page %d: %w", page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("listing page %d returned HTTP %d", page, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing listing page %d: %w", page, err)
	}

	seen := map[string]bool{}
	var ids []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"onclick", "href"} {
			v, ok := sel.Attr(attr)
			if !ok {
				continue
			}
			m := fnDetailPattern.FindStringSubmatch(v)
			if m == nil {
				continue
			}
			if !seen[m[1]] {
				seen[m[1]] = true
				ids = append(ids, m[1])
			}
		}
	})

	SortIDs(ids)
	return ids, nil
}

// Article fetches the view page for nttSeqNo and returns the article title
// and its attachment download parameters. Attachments are de-duplicated
// preserving first-seen order. An article without downloadable files yields
// an empty Attachments slice, not an error.
func (c *Client) Article(ctx context.Context, nttSeqNo string) (*types.Article, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.routingParams()).
		SetQueryParam("nttSeqNo", nttSeqNo).
		Get(viewPath)
	if err != nil {
		return nil, fmt.Errorf("fetching article %s: %w", nttSeqNo, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("article %s returned HTTP %d", nttSeqNo, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing article %s: %w", nttSeqNo, err)
	}

	article := &types.Article{
		ID:    nttSeqNo,
		Title: articleTitle(doc),
	}

	seen := map[types.Attachment]bool{}
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"onclick", "href"} {
			v, ok := sel.Attr(attr)
			if !ok {
				continue
			}
			m := fnDownloadPattern.FindStringSubmatch(v)
			if m == nil {
				continue
			}
			att := types.Attachment{
				AtchFileNo: m[1],
				FileOrd:    m[2],
				Ext:        strings.ToLower(m[3]),
			}
			if !seen[att] {
				seen[att] = true
				article.Attachments = append(article.Attachments, att)
			}
		}
	})

	return article, nil
}

// DownloadAttachment issues the fileDown.do POST for att and returns the
// raw response body for streaming. The caller must close it.
func (c *Client) DownloadAttachment(ctx context.Context, att types.Attachment) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"atchFileNo": att.AtchFileNo,
			"fileOrd":    att.FileOrd,
			"fileBtn":    "A",
		}).
		SetDoNotParseResponse(true).
		Post(downloadPath)
	if err != nil {
		return nil, fmt.Errorf("download request for atchFileNo=%s fileOrd=%s: %w",
			att.AtchFileNo, att.FileOrd, err)
	}
	if resp.StatusCode() >= 400 {
		resp.RawBody().Close()
		return nil, fmt.Errorf("download for atchFileNo=%s fileOrd=%s returned HTTP %d",
			att.AtchFileNo, att.FileOrd, resp.StatusCode())
	}
	return resp, nil
}

// articleTitle extracts the article headline. The board has shuffled its
// markup between redesigns, so this tries the known heading selectors and
// falls back to the document title.
func articleTitle(doc *goquery.Document) string {
	for _, selector := range []string{".view_head .view_tit", ".board_view h3", "h2.tit"} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// SortIDs orders article sequence numbers ascending. IDs are decimal
// strings, so shorter strings sort first and equal lengths sort lexically.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
