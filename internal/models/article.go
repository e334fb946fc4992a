// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// Stream identifies one of the two content categories published by the site.
type Stream string

const (
	// StreamMarket is market intelligence content (analysis, trends).
	StreamMarket Stream = "market"
	// StreamNotice is system announcement content (maintenance, listings).
	StreamNotice Stream = "notice"
)

// Valid reports whether the stream is one of the known values.
func (s Stream) Valid() bool {
	return s == StreamMarket || s == StreamNotice
}

// Article is a published, immutable content record. Once persisted it is
// never edited or deleted by this system; hubs and detail pages only read it.
type Article struct {
	ID        int64     `json:"id"`
	Stream    Stream    `json:"stream"`
	Category  string    `json:"category"`
	Tag       string    `json:"tag"`
	Title     string    `json:"title"`
	MetaDesc  string    `json:"meta_desc"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// videoExtensions lists file suffixes that mark ImageURL as a video asset.
// The table has a single media column; consumers distinguish by URL pattern.
var videoExtensions = []string{".mp4", ".webm", ".mov"}

// HasVideo reports whether the media URL points at a video rather than a
// still image.
func (a Article) HasVideo() bool {
	for _, ext := range videoExtensions {
		if len(a.ImageURL) >= len(ext) && a.ImageURL[len(a.ImageURL)-len(ext):] == ext {
			return true
		}
	}
	return false
}
