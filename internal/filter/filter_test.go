package filter

import (
	"testing"
	"time"

	"newslens/internal/source"
)

func item(title, desc string) source.RawNewsItem {
	return source.RawNewsItem{Title: title, Description: desc}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		item source.RawNewsItem
		want bool
	}{
		{"missing title", item("", "a great startup story"), false},
		{"missing description", item("Startup news", ""), false},
		{"inclusion match", item("New AI platform launches", "cloud tooling for developers"), true},
		{"no inclusion term", item("Recipe of the week", "slow-cooked stew"), false},
		{"exclusion wins over inclusion", item("AI in military drones", "startup builds defense tech"), false},
		{"exclusion via description", item("Chip fab expansion", "software sanctions bite supply chains"), false},
		{"substring match inside word", item("Maintain your garden", "details inside"), true}, // "ai" in "Maintain", accepted imprecision
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.item); got != tt.want {
				t.Errorf("Eligible(%q/%q) = %v, want %v", tt.item.Title, tt.item.Description, got, tt.want)
			}
		})
	}
}

func TestExclusionAlwaysRejects(t *testing.T) {
	// An exclusion term must reject no matter how many inclusion terms match.
	it := item("AI startup funding platform cloud data", "venture capital meets trade war")
	if Eligible(it) {
		t.Error("expected exclusion keyword to reject regardless of inclusion matches")
	}
}

func TestApply(t *testing.T) {
	items := []source.RawNewsItem{
		item("AI assistant update", "new software features"),
		item("Cooking tips", "stew recipes"),
		item("Election tech coverage", "software for government polls"),
	}
	kept := Apply(items)
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept, got %d", len(kept))
	}
	if kept[0].Title != "AI assistant update" {
		t.Errorf("kept wrong item: %q", kept[0].Title)
	}
}

func TestSortByRecency(t *testing.T) {
	base := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	items := []source.RawNewsItem{
		{Title: "old", PublishedAt: base.Add(-2 * time.Hour)},
		{Title: "newest", PublishedAt: base},
		{Title: "middle", PublishedAt: base.Add(-time.Hour)},
	}
	SortByRecency(items)
	want := []string{"newest", "middle", "old"}
	for i, w := range want {
		if items[i].Title != w {
			t.Errorf("position %d: got %q, want %q", i, items[i].Title, w)
		}
	}
}
