// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for board traffic.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request. The
	// board's bot protection rejects default Go client strings, so this
	// defaults to a desktop Chrome UA.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BoardConfig identifies the bulletin board to scrape. The MSIT site routes
// every board through the same three endpoints, distinguished by the
// sCode/mId/mPid/bbsSeqNo query parameters.
type BoardConfig struct {
	// BaseURL is the site root (e.g. "https://www.msit.go.kr").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// SCode, MenuID, ParentMenuID, and BoardSeqNo are the board routing
	// parameters carried on every list and view request.
	SCode        string `json:"s_code" yaml:"s_code"`
	MenuID       string `json:"menu_id" yaml:"menu_id"`
	ParentMenuID string `json:"parent_menu_id" yaml:"parent_menu_id"`
	BoardSeqNo   string `json:"board_seq_no" yaml:"board_seq_no"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Pages is the number of listing pages to scan (default 3).
	Pages int `json:"pages" yaml:"pages"`

	// StartPage is the first listing page to scan (default 1).
	StartPage int `json:"start_page" yaml:"start_page"`

	// Delay is the pause between consecutive board requests (default 1s).
	// Half of it applies between attachments of the same article.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// OutDir is the directory fixture files and metadata are written to
	// (default "msit-docs").
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Formats lists the attachment extensions to download
	// (default hwp, hwpx, odt).
	Formats []string `json:"formats" yaml:"formats"`
}

// CatalogConfig holds settings for the fixture manifest database.
type CatalogConfig struct {
	// OutDir is the fixture directory; the database lives at
	// OutDir/index/fixtures.db.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
