// Package readable fetches an article page and extracts its readable
// text. Used to upgrade thin NewsAPI content excerpts before enrichment;
// the extracted text feeds the prompt context only and is never stored.
package readable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// minExtractedChars guards against boilerplate-only extractions.
const minExtractedChars = 100

// Extractor pulls full article text over HTTP.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an Extractor with the given timeout.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Extract fetches the page at articleURL and returns its readable text.
// Returns an error for network/HTTP failures and an empty string when the
// page has no extractable body; callers treat both as "keep the excerpt".
func (e *Extractor) Extract(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "newslens/1.0 (news aggregator)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minExtractedChars {
		return "", nil
	}
	return text, nil
}
