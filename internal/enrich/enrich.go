// Package enrich turns a raw news item into a persisted-shape article by
// generating its summary fields with a language model and inferring a
// category locally.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"newslens/internal/policy"
	"newslens/internal/source"
	"newslens/internal/store"
)

// ErrEnrichmentFailed marks a per-article generation failure. The
// controller records it and moves on to the next candidate.
var ErrEnrichmentFailed = errors.New("enrichment failed")

// EnrichmentError carries the failed article's title alongside the cause.
type EnrichmentError struct {
	Title string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enriching %q: %v", e.Title, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

func (e *EnrichmentError) Is(target error) bool { return target == ErrEnrichmentFailed }

// Generator produces one text completion for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	defaultCoverImage = "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=800&h=400&fit=crop"
	defaultAuthor     = "Staff Writer"
	defaultPublisher  = "Unknown Publisher"

	// maxPromptChars caps the article context embedded in prompts so an
	// unusually long excerpt can't blow the token budget.
	maxPromptChars = 6000
)

const (
	briefPrompt    = "Generate a brief, engaging summary (2-3 sentences) of this article for a news card: %s"
	detailedPrompt = "Generate a detailed, two-paragraph summary of this article. Make it informative and easy to understand: %s"
	mattersPrompt  = `Based on this article content, write a single paragraph explaining "Why it Matters" for AI enthusiasts and learners. Focus on the broader implications and significance: %s`
)

// Enricher generates article content, pacing every generation call
// through a shared token bucket so the model service's rate limit is
// never exceeded regardless of how many articles a run processes.
type Enricher struct {
	gen     Generator
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates an Enricher that allows at most one generation call per
// pacing interval.
func New(gen Generator, pacing time.Duration) *Enricher {
	if pacing <= 0 {
		pacing = time.Nanosecond
	}
	return &Enricher{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Every(pacing), 1),
		now:     time.Now,
	}
}

// Enrich produces the persisted-shape article for one raw item: three
// generated text fields plus a locally inferred category. Any failed or
// empty generation fails the whole article with an EnrichmentError.
func (e *Enricher) Enrich(ctx context.Context, item source.RawNewsItem) (*store.Article, error) {
	text := promptContext(item)

	quick, err := e.generate(ctx, fmt.Sprintf(briefPrompt, text))
	if err != nil {
		return nil, &EnrichmentError{Title: item.Title, Err: err}
	}
	detailed, err := e.generate(ctx, fmt.Sprintf(detailedPrompt, text))
	if err != nil {
		return nil, &EnrichmentError{Title: item.Title, Err: err}
	}
	matters, err := e.generate(ctx, fmt.Sprintf(mattersPrompt, text))
	if err != nil {
		return nil, &EnrichmentError{Title: item.Title, Err: err}
	}

	now := e.now().UTC()
	return &store.Article{
		Title:           item.Title,
		CoverImage:      coverImage(item),
		PublisherName:   publisherName(item),
		PublisherLogo:   publisherLogo(item.SourceName),
		AuthorName:      authorName(item),
		DatePosted:      item.PublishedAt,
		QuickSummary:    quick,
		DetailedSummary: detailed,
		WhyItMatters:    matters,
		SourceURL:       item.URL,
		Category:        policy.InferCategory(item.Title, item.Description),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (e *Enricher) generate(ctx context.Context, prompt string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty model response")
	}
	return out, nil
}

// promptContext assembles the normalized article text embedded in every
// generation prompt.
func promptContext(item source.RawNewsItem) string {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) > maxPromptChars {
		runes := []rune(content)
		content = string(runes[:maxPromptChars])
	}

	published := ""
	if !item.PublishedAt.IsZero() {
		published = item.PublishedAt.Format(time.RFC3339)
	}

	return strings.TrimSpace(fmt.Sprintf(`Title: %s
Description: %s
Content: %s
Source: %s
Published: %s
URL: %s`,
		item.Title, item.Description, content, item.SourceName, published, item.URL))
}

func coverImage(item source.RawNewsItem) string {
	if strings.HasPrefix(item.ImageURL, "http://") || strings.HasPrefix(item.ImageURL, "https://") {
		return item.ImageURL
	}
	return defaultCoverImage
}

func publisherName(item source.RawNewsItem) string {
	if item.SourceName != "" {
		return item.SourceName
	}
	return defaultPublisher
}

func authorName(item source.RawNewsItem) string {
	if item.Author != "" {
		return item.Author
	}
	return defaultAuthor
}

// publisherLogo derives a logo URL from the publisher name by the
// logo-lookup convention, falling back to a generated placeholder when
// the name is absent. Best effort: an odd publisher name can yield a
// logo URL that 404s, which the presentation layer tolerates.
func publisherLogo(name string) string {
	if name == "" {
		return "https://via.placeholder.com/100x100/3B82F6/FFFFFF?text=" + url.QueryEscape("News")
	}
	slug := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return "https://logo.clearbit.com/" + slug + ".com"
}
