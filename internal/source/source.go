// Package source fetches raw news items from the outside world: the
// NewsAPI aggregation service and any supplemental RSS/Atom feeds.
package source

import (
	"errors"
	"time"
)

// ErrSourceUnavailable marks a per-source fetch failure. Callers skip the
// source and keep iterating; it never aborts a run.
var ErrSourceUnavailable = errors.New("source unavailable")

// RawNewsItem is an unfiltered article as returned by a source. It lives
// only for the duration of a run and is never persisted.
type RawNewsItem struct {
	Title       string
	Description string
	Content     string
	SourceName  string
	Author      string
	PublishedAt time.Time
	URL         string
	ImageURL    string
}
