package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func validArticle(sourceURL string) *Article {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	return &Article{
		Title:           "AI chip launch",
		CoverImage:      "https://example.com/chip.jpg",
		PublisherName:   "TechCrunch",
		PublisherLogo:   "https://logo.clearbit.com/techcrunch.com",
		AuthorName:      "Jane Doe",
		DatePosted:      now.Add(-time.Hour),
		QuickSummary:    "A short but valid summary of the launch.",
		DetailedSummary: strings.Repeat("Detailed summary text. ", 5),
		WhyItMatters:    "It matters because accelerators change AI economics.",
		SourceURL:       sourceURL,
		Category:        "AI",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSaveInsertsArticle(t *testing.T) {
	s := openTestStore(t)

	result, err := s.Save(validArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusInserted {
		t.Errorf("expected inserted, got %s", result.Status)
	}
	if result.ID == 0 {
		t.Error("expected non-zero ID")
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestSaveDuplicateSourceURL(t *testing.T) {
	s := openTestStore(t)

	first, _ := s.Save(validArticle("https://example.com/dup"))

	second := validArticle("https://example.com/dup")
	second.Title = "Different title, same URL"
	result, err := s.Save(second)
	if err != nil {
		t.Fatalf("duplicate must not be an error: %v", err)
	}
	if result.Status != StatusDuplicate {
		t.Errorf("expected duplicate, got %s", result.Status)
	}
	if result.ID != first.ID {
		t.Errorf("duplicate must reference existing record %d, got %d", first.ID, result.ID)
	}

	if n, _ := s.Count(); n != 1 {
		t.Errorf("expected count to stay 1, got %d", n)
	}
}

func TestSaveRejectsOutOfBounds(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name   string
		mutate func(*Article)
	}{
		{"quick summary too short", func(a *Article) { a.QuickSummary = "short" }},
		{"detailed summary too short", func(a *Article) { a.DetailedSummary = "too short" }},
		{"why it matters too short", func(a *Article) { a.WhyItMatters = "meh" }},
		{"title too long", func(a *Article) { a.Title = strings.Repeat("x", 501) }},
		{"bad cover image scheme", func(a *Article) { a.CoverImage = "ftp://example.com/x.jpg" }},
		{"bad source url", func(a *Article) { a.SourceURL = "not-a-url" }},
		{"unknown category", func(a *Article) { a.Category = "Crypto" }},
		{"empty author", func(a *Article) { a.AuthorName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validArticle("https://example.com/" + strings.ReplaceAll(tt.name, " ", "-"))
			tt.mutate(a)
			_, err := s.Save(a)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}

	if n, _ := s.Count(); n != 0 {
		t.Errorf("invalid records must not be stored, count = %d", n)
	}
}

func TestFindBySourceURL(t *testing.T) {
	s := openTestStore(t)
	s.Save(validArticle("https://example.com/find"))

	found, err := s.FindBySourceURL("https://example.com/find")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.Title != "AI chip launch" {
		t.Errorf("expected stored article, got %+v", found)
	}

	missing, err := s.FindBySourceURL("https://example.com/absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for absent URL")
	}
}

func TestCategoriesDistinct(t *testing.T) {
	s := openTestStore(t)

	a := validArticle("https://example.com/1")
	b := validArticle("https://example.com/2")
	b.Category = "Startups"
	c := validArticle("https://example.com/3") // AI again
	for _, art := range []*Article{a, b, c} {
		if _, err := s.Save(art); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cats, err := s.Categories()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("expected 2 distinct categories, got %v", cats)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	old := validArticle("https://example.com/old")
	old.DatePosted = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	recent := validArticle("https://example.com/new")
	recent.DatePosted = time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
	s.Save(old)
	s.Save(recent)

	articles, err := s.List("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].SourceURL != "https://example.com/new" {
		t.Error("expected newest article first")
	}

	filtered, _ := s.List("Funding")
	if len(filtered) != 0 {
		t.Errorf("expected no Funding articles, got %d", len(filtered))
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	s.Save(validArticle("https://example.com/1"))
	s.Save(validArticle("https://example.com/2"))

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if n, _ := s.Count(); n != 0 {
		t.Errorf("expected empty store, count = %d", n)
	}
}

func TestTimestampsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	a := validArticle("https://example.com/ts")
	s.Save(a)

	got, _ := s.FindBySourceURL("https://example.com/ts")
	if !got.DatePosted.Equal(a.DatePosted) {
		t.Errorf("datePosted round trip: got %v, want %v", got.DatePosted, a.DatePosted)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("createdAt round trip: got %v, want %v", got.CreatedAt, a.CreatedAt)
	}
}
