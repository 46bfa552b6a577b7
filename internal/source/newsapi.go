package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultNewsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIClient fetches articles from NewsAPI.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPIClient creates a NewsAPI client with the given key.
func NewNewsAPIClient(apiKey string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: defaultNewsAPIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *NewsAPIClient) SetBaseURL(u string) { c.baseURL = u }

// IsConfigured returns whether the API key is available.
func (c *NewsAPIClient) IsConfigured() bool { return c.apiKey != "" }

// FetchSource returns up to pageSize recent items from a single source
// identifier, newest first. A non-2xx response or network error is
// reported as ErrSourceUnavailable so the caller can skip the source and
// continue with the rest.
func (c *NewsAPIClient) FetchSource(ctx context.Context, sourceID string, pageSize int) ([]RawNewsItem, error) {
	params := url.Values{
		"sources":  {sourceID},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {fmt.Sprintf("%d", pageSize)},
	}
	items, err := c.query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, sourceID, err)
	}
	return items, nil
}

// SearchBroad issues a single keyword search instead of per-source calls.
// Used by the fallback pass.
func (c *NewsAPIClient) SearchBroad(ctx context.Context, query string, pageSize int) ([]RawNewsItem, error) {
	params := url.Values{
		"q":        {query},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {fmt.Sprintf("%d", pageSize)},
	}
	items, err := c.query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrSourceUnavailable, query, err)
	}
	return items, nil
}

func (c *NewsAPIClient) query(ctx context.Context, params url.Values) ([]RawNewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			Author      string `json:"author"`
			PublishedAt string `json:"publishedAt"`
			URL         string `json:"url"`
			URLToImage  string `json:"urlToImage"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("API status %q", result.Status)
	}

	var items []RawNewsItem
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		// NewsAPI tombstones for retracted articles.
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}

		var published time.Time
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				published = t
			}
		}

		items = append(items, RawNewsItem{
			Title:       strings.TrimSpace(a.Title),
			Description: strings.TrimSpace(a.Description),
			Content:     strings.TrimSpace(a.Content),
			SourceName:  a.Source.Name,
			Author:      strings.TrimSpace(a.Author),
			PublishedAt: published,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
		})
	}
	return items, nil
}
