package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"newslens/internal/source"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	responses []string
	err       error
	failAt    int // 1-based call index to fail at; 0 = honor err for all
	calls     int
	prompts   []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.failAt > 0 && m.calls == m.failAt {
		return "", errors.New("model overloaded")
	}
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) >= m.calls {
		return m.responses[m.calls-1], nil
	}
	return fmt.Sprintf("generated response number %d with plenty of text to pass validation", m.calls), nil
}

func testItem() source.RawNewsItem {
	return source.RawNewsItem{
		Title:       "AI chip launch",
		Description: "A new accelerator for model training",
		Content:     "Full body excerpt",
		SourceName:  "TechCrunch",
		Author:      "Jane Doe",
		PublishedAt: time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
		URL:         "https://example.com/chip",
		ImageURL:    "https://example.com/chip.jpg",
	}
}

func TestEnrichBuildsArticle(t *testing.T) {
	gen := &mockGenerator{responses: []string{
		"A brief summary of the chip launch.",
		strings.Repeat("Two detailed paragraphs about the launch. ", 3),
		"It matters because training costs drop for everyone.",
	}}
	e := New(gen, 0)

	article, err := e.Enrich(context.Background(), testItem())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.calls != 3 {
		t.Errorf("expected 3 generation calls, got %d", gen.calls)
	}
	if article.QuickSummary != "A brief summary of the chip launch." {
		t.Errorf("unexpected quick summary: %q", article.QuickSummary)
	}
	if article.Category != "AI" {
		t.Errorf("expected AI category, got %q", article.Category)
	}
	if article.CoverImage != "https://example.com/chip.jpg" {
		t.Errorf("expected source image kept, got %q", article.CoverImage)
	}
	if article.PublisherLogo != "https://logo.clearbit.com/techcrunch.com" {
		t.Errorf("unexpected logo: %q", article.PublisherLogo)
	}
	if article.AuthorName != "Jane Doe" {
		t.Errorf("unexpected author: %q", article.AuthorName)
	}
	if article.CreatedAt.IsZero() || article.UpdatedAt.IsZero() {
		t.Error("expected enrichment timestamps to be set")
	}
}

func TestEnrichPromptOrder(t *testing.T) {
	gen := &mockGenerator{}
	e := New(gen, 0)

	if _, err := e.Enrich(context.Background(), testItem()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.prompts) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "brief, engaging summary") {
		t.Errorf("first prompt should request the brief summary: %q", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[1], "two-paragraph summary") {
		t.Errorf("second prompt should request the detailed summary: %q", gen.prompts[1])
	}
	if !strings.Contains(gen.prompts[2], "Why it Matters") {
		t.Errorf("third prompt should request why it matters: %q", gen.prompts[2])
	}
	for i, p := range gen.prompts {
		if !strings.Contains(p, "Title: AI chip launch") || !strings.Contains(p, "URL: https://example.com/chip") {
			t.Errorf("prompt %d missing article context: %q", i, p)
		}
	}
}

func TestEnrichFailureCarriesTitle(t *testing.T) {
	gen := &mockGenerator{failAt: 2}
	e := New(gen, 0)

	_, err := e.Enrich(context.Background(), testItem())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrEnrichmentFailed) {
		t.Errorf("expected ErrEnrichmentFailed, got %v", err)
	}
	var ee *EnrichmentError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EnrichmentError, got %T", err)
	}
	if ee.Title != "AI chip launch" {
		t.Errorf("expected failing article title, got %q", ee.Title)
	}
}

func TestEnrichEmptyResponseFails(t *testing.T) {
	gen := &mockGenerator{responses: []string{"   ", "", ""}}
	e := New(gen, 0)

	_, err := e.Enrich(context.Background(), testItem())
	if !errors.Is(err, ErrEnrichmentFailed) {
		t.Errorf("expected ErrEnrichmentFailed for blank response, got %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected enrichment to stop at first empty response, got %d calls", gen.calls)
	}
}

func TestEnrichFallbacks(t *testing.T) {
	item := testItem()
	item.ImageURL = ""
	item.Author = ""
	item.SourceName = ""

	e := New(&mockGenerator{}, 0)
	article, err := e.Enrich(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if article.CoverImage != defaultCoverImage {
		t.Errorf("expected placeholder cover, got %q", article.CoverImage)
	}
	if article.AuthorName != defaultAuthor {
		t.Errorf("expected %q, got %q", defaultAuthor, article.AuthorName)
	}
	if article.PublisherName != defaultPublisher {
		t.Errorf("expected %q, got %q", defaultPublisher, article.PublisherName)
	}
	if !strings.HasPrefix(article.PublisherLogo, "https://via.placeholder.com/") {
		t.Errorf("expected placeholder logo, got %q", article.PublisherLogo)
	}
}

func TestPacingSpacesCalls(t *testing.T) {
	gen := &mockGenerator{}
	pacing := 30 * time.Millisecond
	e := New(gen, pacing)

	start := time.Now()
	if _, err := e.Enrich(context.Background(), testItem()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// First call is admitted immediately; the next two wait one interval each.
	if elapsed < 2*pacing {
		t.Errorf("expected at least %v of pacing, finished in %v", 2*pacing, elapsed)
	}
}

func TestPacingCancellable(t *testing.T) {
	e := New(&mockGenerator{}, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Enrich(ctx, testItem())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
