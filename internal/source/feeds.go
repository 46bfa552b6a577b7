package source

import (
	"context"
	"log"
	"strings"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 20

// FeedConfig identifies one supplemental RSS/Atom feed.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedFetcher pulls items from supplemental feeds. Feeds ride alongside
// the NewsAPI sources: their items flow through the same filter and
// enrichment path.
type FeedFetcher struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewFeedFetcher creates a FeedFetcher for the given feeds.
func NewFeedFetcher(feeds []FeedConfig) *FeedFetcher {
	return &FeedFetcher{feeds: feeds, parser: gofeed.NewParser()}
}

// FetchAll parses every configured feed. A broken feed is logged and
// skipped; the rest are still collected.
func (f *FeedFetcher) FetchAll(ctx context.Context) []RawNewsItem {
	var all []RawNewsItem
	for _, fc := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			log.Printf("skipping feed %s: %v", fc.URL, err)
			continue
		}

		name := fc.Name
		if name == "" {
			name = feed.Title
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			raw := feedItem(item, name)
			if raw == nil {
				continue
			}
			all = append(all, *raw)
			count++
		}
		log.Printf("collected %d items from feed %s", count, name)
	}
	return all
}

func feedItem(item *gofeed.Item, sourceName string) *RawNewsItem {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	raw := RawNewsItem{
		Title:       title,
		Description: strings.TrimSpace(item.Description),
		Content:     strings.TrimSpace(item.Content),
		SourceName:  sourceName,
		URL:         link,
	}
	if item.PublishedParsed != nil {
		raw.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		raw.PublishedAt = *item.UpdatedParsed
	}
	if len(item.Authors) > 0 {
		raw.Author = item.Authors[0].Name
	}
	if item.Image != nil {
		raw.ImageURL = item.Image.URL
	}
	return &raw
}
