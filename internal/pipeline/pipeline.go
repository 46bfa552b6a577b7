// Package pipeline orchestrates one ingestion run: fetch raw items,
// filter them against the editorial policy, sort by recency, enrich each
// surviving candidate under pacing, and push the results through the
// persistence gate. The three passes (baseline, expanded, fallback) are
// one controller with a pluggable fetch strategy and stop policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"newslens/internal/filter"
	"newslens/internal/policy"
	"newslens/internal/source"
	"newslens/internal/store"
)

// SourceClient is the slice of the NewsAPI client the pipeline consumes.
type SourceClient interface {
	FetchSource(ctx context.Context, sourceID string, pageSize int) ([]source.RawNewsItem, error)
	SearchBroad(ctx context.Context, query string, pageSize int) ([]source.RawNewsItem, error)
}

// FeedSource supplies supplemental feed items merged into per-source runs.
type FeedSource interface {
	FetchAll(ctx context.Context) []source.RawNewsItem
}

// ArticleEnricher turns one raw item into a persisted-shape article.
type ArticleEnricher interface {
	Enrich(ctx context.Context, item source.RawNewsItem) (*store.Article, error)
}

// ArticleStore is the slice of the store the controller consumes.
type ArticleStore interface {
	Count() (int, error)
	Save(a *store.Article) (*store.SaveResult, error)
}

// Upgrader fetches full article text to replace a thin content excerpt.
type Upgrader interface {
	Extract(ctx context.Context, articleURL string) (string, error)
}

// ArticleError names one failed article in a run report.
type ArticleError struct {
	Title   string `json:"title"`
	Message string `json:"error"`
}

// Report is the structured outcome of one run. Zero new articles is a
// valid outcome, not an error.
type Report struct {
	Pass          string         `json:"pass"`
	Fetched       int            `json:"fetched"`
	Filtered      int            `json:"filtered"`
	Enriched      int            `json:"enriched"`
	Inserted      int            `json:"inserted"`
	Duplicates    int            `json:"duplicates"`
	Failed        int            `json:"failed"`
	Errors        []ArticleError `json:"errors,omitempty"`
	TotalStored   int            `json:"totalInDatabase"`
	TargetReached bool           `json:"targetReached"`
}

// FetchStrategy produces a run's raw candidates. Per-source failures are
// absorbed inside the strategy; a strategy never fails the run.
type FetchStrategy interface {
	Fetch(ctx context.Context) []source.RawNewsItem
}

// StopPolicy decides how much of the candidate list a run works through.
type StopPolicy interface {
	// SkipRun reports whether the run should finish before fetching.
	SkipRun(stored int) bool
	// CandidateCap limits how many sorted survivors may be attempted;
	// 0 means no cap.
	CandidateCap() int
	// Target returns how many successful enrichments to aim for, given
	// the stored count at the start of the run; -1 means unlimited.
	Target(stored int) int
	// Reached reports whether the corpus goal is met at the given count.
	Reached(stored int) bool
}

// Options wires a controller's collaborators and tuning knobs.
type Options struct {
	Client   SourceClient
	Feeds    FeedSource // optional
	Enricher ArticleEnricher
	Store    ArticleStore
	Upgrader Upgrader // optional

	TargetTotal      int // corpus size ceiling (default 10)
	BaselineTop      int // baseline pass candidate cap (default 10)
	BaselinePageSize int // per-source page size, baseline (default 5)
	ExpandedPageSize int // per-source page size, expanded (default 2)
	BroadPageSize    int // fallback search page size (default 10)
	BroadQuery       string
	MinContentChars  int // below this, attempt a full-text upgrade (default 200)
}

func (o Options) withDefaults() Options {
	if o.TargetTotal == 0 {
		o.TargetTotal = 10
	}
	if o.BaselineTop == 0 {
		o.BaselineTop = 10
	}
	if o.BaselinePageSize == 0 {
		o.BaselinePageSize = 5
	}
	if o.ExpandedPageSize == 0 {
		o.ExpandedPageSize = 2
	}
	if o.BroadPageSize == 0 {
		o.BroadPageSize = 10
	}
	if o.BroadQuery == "" {
		o.BroadQuery = "technology"
	}
	if o.MinContentChars == 0 {
		o.MinContentChars = 200
	}
	return o
}

// Controller runs one pass of the ingestion pipeline.
type Controller struct {
	pass            string
	fetch           FetchStrategy
	stop            StopPolicy
	enricher        ArticleEnricher
	store           ArticleStore
	upgrader        Upgrader
	minContentChars int
}

// NewBaseline builds the baseline pass: a small page from each core
// source, top survivors enriched and persisted unconditionally.
func NewBaseline(o Options) *Controller {
	o = o.withDefaults()
	return newController("baseline", o, &perSource{
		client:   o.Client,
		feeds:    o.Feeds,
		sources:  policy.BaselineSources,
		pageSize: o.BaselinePageSize,
	}, &fixedTop{top: o.BaselineTop, ceiling: o.TargetTotal})
}

// NewExpanded builds the expanded pass: broader source list, stopping as
// soon as the stored total reaches the target ceiling.
func NewExpanded(o Options) *Controller {
	o = o.withDefaults()
	return newController("expanded", o, &perSource{
		client:   o.Client,
		feeds:    o.Feeds,
		sources:  policy.ExpandedSources,
		pageSize: o.ExpandedPageSize,
	}, &ceilingPolicy{ceiling: o.TargetTotal})
}

// NewFallback builds the fallback pass: one broad keyword search narrowed
// to known publishers, persisting the first article that enriches cleanly.
func NewFallback(o Options) *Controller {
	o = o.withDefaults()
	return newController("fallback", o, &broadSearch{
		client:   o.Client,
		query:    o.BroadQuery,
		pageSize: o.BroadPageSize,
	}, &firstSuccess{ceiling: o.TargetTotal})
}

func newController(pass string, o Options, fetch FetchStrategy, stop StopPolicy) *Controller {
	return &Controller{
		pass:            pass,
		fetch:           fetch,
		stop:            stop,
		enricher:        o.Enricher,
		store:           o.Store,
		upgrader:        o.Upgrader,
		minContentChars: o.MinContentChars,
	}
}

// Run executes the pass. Per-source and per-article failures are folded
// into the report; only store failures abort the run.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	report := &Report{Pass: c.pass}

	stored, err := c.store.Count()
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", c.pass, err)
	}

	if c.stop.SkipRun(stored) {
		log.Printf("[%s] corpus already at %d, nothing to do", c.pass, stored)
		report.TotalStored = stored
		report.TargetReached = c.stop.Reached(stored)
		return report, nil
	}

	items := c.fetch.Fetch(ctx)
	report.Fetched = len(items)

	candidates := filter.Apply(items)
	filter.SortByRecency(candidates)
	report.Filtered = len(candidates)
	log.Printf("[%s] %d fetched, %d eligible", c.pass, report.Fetched, report.Filtered)

	if limit := c.stop.CandidateCap(); limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	target := c.stop.Target(stored)
	successes := 0

	for _, item := range candidates {
		if target >= 0 && successes >= target {
			break
		}

		item = c.upgradeContent(ctx, item)

		article, err := c.enricher.Enrich(ctx, item)
		if err != nil {
			log.Printf("[%s] enrichment failed for %q: %v", c.pass, item.Title, err)
			report.Failed++
			report.Errors = append(report.Errors, ArticleError{Title: item.Title, Message: err.Error()})
			continue
		}
		report.Enriched++
		successes++

		result, err := c.store.Save(article)
		if err != nil {
			if errors.Is(err, store.ErrInvalidRecord) {
				log.Printf("[%s] store rejected %q: %v", c.pass, article.Title, err)
				report.Failed++
				report.Errors = append(report.Errors, ArticleError{Title: article.Title, Message: err.Error()})
				continue
			}
			return nil, fmt.Errorf("%s pass: %w", c.pass, err)
		}

		switch result.Status {
		case store.StatusInserted:
			report.Inserted++
			log.Printf("[%s] stored %q", c.pass, article.Title)
		case store.StatusDuplicate:
			report.Duplicates++
			log.Printf("[%s] duplicate %q", c.pass, article.Title)
		}
	}

	total, err := c.store.Count()
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", c.pass, err)
	}
	report.TotalStored = total
	report.TargetReached = c.stop.Reached(total)

	log.Printf("[%s] done: %d inserted, %d duplicates, %d failed, %d total",
		c.pass, report.Inserted, report.Duplicates, report.Failed, total)
	return report, nil
}

// upgradeContent swaps a thin excerpt for the article's full readable
// text when an upgrader is wired. Best effort; failure keeps the excerpt.
func (c *Controller) upgradeContent(ctx context.Context, item source.RawNewsItem) source.RawNewsItem {
	if c.upgrader == nil || len(item.Content) >= c.minContentChars {
		return item
	}
	text, err := c.upgrader.Extract(ctx, item.URL)
	if err != nil || text == "" {
		return item
	}
	item.Content = text
	return item
}

// perSource issues one call per configured source, skipping sources that
// fail, and merges any supplemental feed items.
type perSource struct {
	client   SourceClient
	feeds    FeedSource
	sources  []string
	pageSize int
}

func (p *perSource) Fetch(ctx context.Context) []source.RawNewsItem {
	var all []source.RawNewsItem
	for _, id := range p.sources {
		items, err := p.client.FetchSource(ctx, id, p.pageSize)
		if err != nil {
			log.Printf("skipping source %s: %v", id, err)
			continue
		}
		all = append(all, items...)
	}
	if p.feeds != nil {
		all = append(all, p.feeds.FetchAll(ctx)...)
	}
	return all
}

// broadSearch issues a single keyword search and narrows the results to
// known publishers client-side.
type broadSearch struct {
	client   SourceClient
	query    string
	pageSize int
}

func (b *broadSearch) Fetch(ctx context.Context) []source.RawNewsItem {
	items, err := b.client.SearchBroad(ctx, b.query, b.pageSize)
	if err != nil {
		log.Printf("broad search failed: %v", err)
		return nil
	}
	var known []source.RawNewsItem
	for _, item := range items {
		if policy.KnownSource(item.SourceName) {
			known = append(known, item)
		}
	}
	return known
}

// fixedTop processes the N most recent survivors unconditionally.
type fixedTop struct {
	top     int
	ceiling int
}

func (f *fixedTop) SkipRun(int) bool        { return false }
func (f *fixedTop) CandidateCap() int       { return f.top }
func (f *fixedTop) Target(int) int          { return -1 }
func (f *fixedTop) Reached(stored int) bool { return stored >= f.ceiling }

// ceilingPolicy stops once the stored count plus this run's successes
// reach the corpus ceiling, so no quota is spent past the goal.
type ceilingPolicy struct {
	ceiling int
}

func (c *ceilingPolicy) SkipRun(int) bool  { return false }
func (c *ceilingPolicy) CandidateCap() int { return 0 }

func (c *ceilingPolicy) Target(stored int) int {
	if remaining := c.ceiling - stored; remaining > 0 {
		return remaining
	}
	return 0
}

func (c *ceilingPolicy) Reached(stored int) bool { return stored >= c.ceiling }

// firstSuccess persists exactly one article, trying candidates in order
// until one enriches cleanly. Skips the run entirely when the corpus is
// already full.
type firstSuccess struct {
	ceiling int
}

func (f *firstSuccess) SkipRun(stored int) bool { return stored >= f.ceiling }
func (f *firstSuccess) CandidateCap() int       { return 0 }
func (f *firstSuccess) Target(int) int          { return 1 }
func (f *firstSuccess) Reached(stored int) bool { return stored >= f.ceiling }
