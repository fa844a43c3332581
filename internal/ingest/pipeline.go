// Package ingest orchestrates one ingestion pass: pick due sources,
// read their feeds, extract media and full text for each entry, dedup,
// and persist new articles as pending.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mujaz/ingest/internal/cache"
	"github.com/mujaz/ingest/internal/metrics"
	"github.com/mujaz/ingest/internal/rss"
	"github.com/mujaz/ingest/internal/storage"
	"github.com/mujaz/ingest/internal/textutil"
	"github.com/mujaz/ingest/internal/webpage"
)

const (
	// DefaultBatchSize is used when the trigger sends no limit.
	DefaultBatchSize = 10
	// MaxBatchSize caps the per-run source count regardless of the
	// requested limit.
	MaxBatchSize = 20
	// defaultGroupSize is how many sources are fetched concurrently.
	defaultGroupSize = 3
)

// SourceStore is the source selection and health side of storage.
type SourceStore interface {
	DueSources(ctx context.Context, limit, maxErrors int, staleThreshold time.Duration) ([]storage.Source, error)
	MarkSourceSuccess(ctx context.Context, sourceID int64) error
	MarkSourceFailure(ctx context.Context, sourceID int64, message string) error
}

// ArticleStore is the dedup-and-insert side of storage.
type ArticleStore interface {
	ArticleExistsByURL(ctx context.Context, originalURL string) (bool, error)
	ArticleExistsByHash(ctx context.Context, contentHash string) (bool, error)
	InsertArticle(ctx context.Context, a *storage.RawArticle) (bool, error)
}

// FeedReader fetches and normalizes one feed.
type FeedReader interface {
	Fetch(ctx context.Context, feedURL string) ([]rss.Entry, error)
}

// PageFetcher resolves media and full text for one article page.
type PageFetcher interface {
	FetchPageData(ctx context.Context, pageURL string) webpage.Extraction
}

// Options tune one pipeline instance. Zero values take defaults.
type Options struct {
	BatchSize      int
	GroupSize      int
	StaleThreshold time.Duration
	MaxErrorCount  int
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	if o.GroupSize <= 0 {
		o.GroupSize = defaultGroupSize
	}
	if o.StaleThreshold <= 0 {
		o.StaleThreshold = 30 * time.Minute
	}
	if o.MaxErrorCount <= 0 {
		o.MaxErrorCount = 5
	}
}

// SourceResult is the per-source outcome reported to the trigger.
type SourceResult struct {
	SourceID        int64  `json:"source_id"`
	FeedURL         string `json:"feed_url"`
	ArticlesFetched int    `json:"articles_fetched"`
	NewArticles     int    `json:"new_articles"`
	Duplicates      int    `json:"duplicates"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}

// Report summarizes one ingestion pass.
type Report struct {
	SourcesProcessed     int            `json:"sources_processed"`
	TotalArticlesFetched int            `json:"total_articles_fetched"`
	TotalNewArticles     int            `json:"total_new_articles"`
	Duration             time.Duration  `json:"-"`
	Results              []SourceResult `json:"results"`
	Errors               []string       `json:"errors,omitempty"`
}

// Pipeline wires the stages together. Construct with New.
type Pipeline struct {
	sources  SourceStore
	articles ArticleStore
	feeds    FeedReader
	pages    PageFetcher
	seen     *cache.SeenCache
	log      *slog.Logger
	opts     Options
}

// New builds a pipeline. seen may be nil to disable the in-process
// fast path; the database checks still hold.
func New(sources SourceStore, articles ArticleStore, feeds FeedReader, pages PageFetcher, seen *cache.SeenCache, log *slog.Logger, opts Options) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	opts.applyDefaults()
	return &Pipeline{
		sources:  sources,
		articles: articles,
		feeds:    feeds,
		pages:    pages,
		seen:     seen,
		log:      log,
		opts:     opts,
	}
}

// Run executes one ingestion pass over up to limit due sources.
// limit <= 0 means the configured batch size; anything above the hard
// cap is clamped. Sources are processed in groups: groups run
// sequentially, members of a group concurrently.
func (p *Pipeline) Run(ctx context.Context, limit int) (*Report, error) {
	start := time.Now()

	if limit <= 0 {
		limit = p.opts.BatchSize
	}
	if limit > MaxBatchSize {
		limit = MaxBatchSize
	}

	due, err := p.sources.DueSources(ctx, limit, p.opts.MaxErrorCount, p.opts.StaleThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to select due sources: %w", err)
	}

	p.log.Info("🚀 ingestion pass started", "due_sources", len(due), "limit", limit)

	report := &Report{Results: make([]SourceResult, len(due))}

	for groupStart := 0; groupStart < len(due); groupStart += p.opts.GroupSize {
		groupEnd := groupStart + p.opts.GroupSize
		if groupEnd > len(due) {
			groupEnd = len(due)
		}

		var wg sync.WaitGroup
		for i := groupStart; i < groupEnd; i++ {
			wg.Add(1)
			go func(idx int, src storage.Source) {
				defer wg.Done()
				report.Results[idx] = p.processSource(ctx, src)
			}(i, due[i])
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	for _, res := range report.Results {
		report.SourcesProcessed++
		report.TotalArticlesFetched += res.ArticlesFetched
		report.TotalNewArticles += res.NewArticles
		if !res.Success && res.Error != "" {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", res.FeedURL, res.Error))
		}
	}
	report.Duration = time.Since(start)

	metrics.Global.AddSourcesProcessed(report.SourcesProcessed)
	metrics.Global.AddArticlesFetched(report.TotalArticlesFetched)
	metrics.Global.AddNewArticles(report.TotalNewArticles)
	metrics.Global.RecordRunDuration(report.Duration)
	metrics.Global.SetLastRun()

	p.log.Info("✅ ingestion pass finished",
		"sources", report.SourcesProcessed,
		"fetched", report.TotalArticlesFetched,
		"new", report.TotalNewArticles,
		"duration", report.Duration.Round(time.Millisecond))

	return report, nil
}

// processSource ingests one feed. A feed that cannot be fetched or
// parsed marks the source unhealthy; a single bad entry does not.
func (p *Pipeline) processSource(ctx context.Context, src storage.Source) SourceResult {
	res := SourceResult{SourceID: src.ID, FeedURL: src.FeedURL}
	log := p.log.With("source_id", src.ID, "feed", src.FeedURL)

	entries, err := p.feeds.Fetch(ctx, src.FeedURL)
	if err != nil {
		log.Warn("⚠️ feed fetch failed", "error", err)
		res.Error = err.Error()
		metrics.Global.IncrementSourceFailures()
		if markErr := p.sources.MarkSourceFailure(ctx, src.ID, err.Error()); markErr != nil {
			log.Error("failed to record source failure", "error", markErr)
		}
		return res
	}

	res.ArticlesFetched = len(entries)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		inserted, err := p.processEntry(ctx, src, entry)
		if err != nil {
			// Entry-level problems are logged and skipped, never
			// escalated to source health.
			log.Warn("entry skipped", "url", entry.URL, "error", err)
			continue
		}
		if inserted {
			res.NewArticles++
		} else {
			res.Duplicates++
			metrics.Global.IncrementDuplicatesSkipped()
		}
	}

	res.Success = true
	if err := p.sources.MarkSourceSuccess(ctx, src.ID); err != nil {
		log.Error("failed to record source success", "error", err)
	}

	log.Info("source processed", "fetched", res.ArticlesFetched, "new", res.NewArticles, "duplicates", res.Duplicates)
	return res
}

// processEntry runs one entry through the dedup gate and, when it is
// new, through page extraction and insert. Returns whether a row was
// actually inserted.
func (p *Pipeline) processEntry(ctx context.Context, src storage.Source, entry rss.Entry) (bool, error) {
	// Fast path: this process already saw the URL recently.
	if p.seen != nil && p.seen.Seen(entry.URL) {
		return false, nil
	}

	exists, err := p.articles.ArticleExistsByURL(ctx, entry.URL)
	if err != nil {
		return false, err
	}
	if exists {
		p.markSeen(entry.URL)
		return false, nil
	}

	rawText := entry.RawContent
	if rawText == "" {
		rawText = entry.RawDescription
	}
	hash := textutil.ContentHash(entry.Title, textutil.StripHTML(rawText))

	exists, err = p.articles.ArticleExistsByHash(ctx, hash)
	if err != nil {
		return false, err
	}
	if exists {
		// Same article under a different URL (tracking params,
		// syndication). Remember the URL so we stop re-checking it.
		p.markSeen(entry.URL)
		return false, nil
	}

	// Only new articles pay for a page fetch.
	ext := p.pages.FetchPageData(ctx, entry.URL)
	if ext.ExtractionMethod == webpage.MethodFailed {
		metrics.Global.IncrementExtractionFailures()
	}

	article := p.buildArticle(src, entry, ext, hash)

	inserted, err := p.articles.InsertArticle(ctx, article)
	if err != nil {
		return false, err
	}
	p.markSeen(entry.URL)
	return inserted, nil
}

// buildArticle merges the feed entry with the page extraction. Page
// data wins for media; feed hints fill the gaps, which keeps an image
// on articles whose pages were unreachable.
func (p *Pipeline) buildArticle(src storage.Source, entry rss.Entry, ext webpage.Extraction, hash string) *storage.RawArticle {
	imageURL := ext.ImageURL
	if imageURL == "" {
		imageURL = entry.HintedImageURL
	}

	videoURL := ext.VideoURL
	videoType := ext.VideoType
	if videoURL == "" && entry.HintedVideo != nil {
		videoURL = entry.HintedVideo.URL
		videoType = entry.HintedVideo.Type
	}

	author := entry.Author
	if author == "" {
		author = ext.Byline
	}

	a := &storage.RawArticle{
		RssSourceID:         src.ID,
		GUID:                entry.GUID,
		OriginalURL:         entry.URL,
		OriginalTitle:       entry.Title,
		OriginalContent:     entry.RawContent,
		OriginalDescription: textutil.StripHTML(entry.RawDescription),
		ContentQuality:      ext.ContentQuality,
		ContentHash:         hash,
		Status:              storage.StatusPending,
		RetryCount:          0,
	}
	if ext.FullContent != "" {
		a.FullContent = &ext.FullContent
	}
	if imageURL != "" {
		a.ImageURL = &imageURL
	}
	if videoURL != "" {
		a.VideoURL = &videoURL
		if videoType != "" {
			a.VideoType = &videoType
		}
	}
	if author != "" {
		a.Author = &author
	}
	if !entry.PublishedAt.IsZero() {
		t := entry.PublishedAt
		a.PublishedAt = &t
	}
	return a
}

func (p *Pipeline) markSeen(url string) {
	if p.seen != nil {
		p.seen.Mark(url)
	}
}
