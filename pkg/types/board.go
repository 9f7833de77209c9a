// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Attachment holds the download parameters scraped from an article view
// page. The board exposes attachments only through fn_download JavaScript
// handlers, so these three values are everything the download endpoint needs.
type Attachment struct {
	// AtchFileNo is the attachment group number (atchFileNo form field).
	AtchFileNo string `json:"atch_file_no" yaml:"atch_file_no"`

	// FileOrd is the position of the file within its group (fileOrd form field).
	FileOrd string `json:"file_ord" yaml:"file_ord"`

	// Ext is the lowercased file extension as advertised by the page
	// (e.g. "hwp", "hwpx", "odt", "pdf").
	Ext string `json:"ext" yaml:"ext"`
}

// Article is the scraped record of one press-release article.
type Article struct {
	// ID is the board's article sequence number (nttSeqNo).
	ID string `json:"id" yaml:"id"`

	// Title is the article headline from the view page, when present.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Attachments lists the downloadable files in first-seen order,
	// de-duplicated.
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
}

// Fixture records one downloaded attachment in the local corpus.
type Fixture struct {
	// ArticleID is the source article's sequence number.
	ArticleID string `json:"article_id" yaml:"article_id"`

	// Format is the file extension (hwp, hwpx, or odt).
	Format string `json:"format" yaml:"format"`

	// Path is the location of the file relative to the fixture directory.
	Path string `json:"path" yaml:"path"`

	// Size is the downloaded file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Title is the source article headline, when scraped.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// AtchFileNo and FileOrd are the download parameters the file was
	// fetched with, kept for re-fetching by hand.
	AtchFileNo string `json:"atch_file_no" yaml:"atch_file_no"`
	FileOrd    string `json:"file_ord" yaml:"file_ord"`

	// FetchedAt is when the download completed.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
