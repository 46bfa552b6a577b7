// Package filter decides which raw items are worth enriching.
package filter

import (
	"sort"
	"strings"

	"newslens/internal/policy"
	"newslens/internal/source"
)

// Eligible reports whether a raw item passes the editorial policy.
// Rules, in order: title and description must be present; no exclusion
// keyword may appear in the lowercased title+description; at least one
// inclusion term must appear. Substring matching throughout; the policy
// depends on these exact semantics.
func Eligible(item source.RawNewsItem) bool {
	if item.Title == "" || item.Description == "" {
		return false
	}

	content := strings.ToLower(item.Title) + " " + strings.ToLower(item.Description)

	for _, kw := range policy.ExcludeKeywords {
		if strings.Contains(content, kw) {
			return false
		}
	}
	for _, term := range policy.IncludeTerms {
		if strings.Contains(content, term) {
			return true
		}
	}
	return false
}

// Apply returns the eligible subset of items.
func Apply(items []source.RawNewsItem) []source.RawNewsItem {
	var kept []source.RawNewsItem
	for _, item := range items {
		if Eligible(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// SortByRecency orders items most-recent-first, in place. Stable on ties.
func SortByRecency(items []source.RawNewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
