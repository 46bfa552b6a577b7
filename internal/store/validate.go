package store

import (
	"fmt"
	"strings"

	"newslens/internal/policy"
)

// bounds mirror the collection validator the corpus was designed around:
// every text field has a length range and the URL fields must be http(s).
var textBounds = []struct {
	name string
	min  int
	max  int
	get  func(*Article) string
}{
	{"title", 1, 500, func(a *Article) string { return a.Title }},
	{"publisherName", 1, 100, func(a *Article) string { return a.PublisherName }},
	{"authorName", 1, 100, func(a *Article) string { return a.AuthorName }},
	{"quickSummary", 10, 500, func(a *Article) string { return a.QuickSummary }},
	{"detailedSummary", 50, 2000, func(a *Article) string { return a.DetailedSummary }},
	{"whyItMatters", 20, 1000, func(a *Article) string { return a.WhyItMatters }},
}

var urlFields = []struct {
	name string
	get  func(*Article) string
}{
	{"coverImage", func(a *Article) string { return a.CoverImage }},
	{"publisherLogo", func(a *Article) string { return a.PublisherLogo }},
	{"sourceUrl", func(a *Article) string { return a.SourceURL }},
}

// Validate checks an article against the schema bounds. A violation is
// reported as ErrInvalidRecord naming the offending field.
func Validate(a *Article) error {
	for _, b := range textBounds {
		n := len(b.get(a))
		if n < b.min || n > b.max {
			return fmt.Errorf("%w: %s length %d outside [%d, %d]",
				ErrInvalidRecord, b.name, n, b.min, b.max)
		}
	}
	for _, f := range urlFields {
		v := f.get(a)
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidRecord, f.name, v)
		}
	}
	if !policy.ValidCategory(a.Category) {
		return fmt.Errorf("%w: category %q not in %v", ErrInvalidRecord, a.Category, policy.Categories)
	}
	if a.DatePosted.IsZero() || a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: timestamps must be set", ErrInvalidRecord)
	}
	return nil
}
