// Package webpage fetches article pages and extracts media plus full text.
//
// The resolver and extractor never return errors: a page that cannot be
// fetched or parsed degrades to an empty Extraction with method "failed",
// so one bad page never stops an ingestion pass. Failure is data here,
// not control flow.
package webpage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mujaz/ingest/internal/ratelimit"
)

const (
	defaultTimeout = 25 * time.Second
	maxPageBytes   = 10 << 20 // 10MB cap on fetched HTML

	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Extraction method names.
const (
	MethodJSONLD      = "json-ld"
	MethodReadability = "readability"
	MethodDOM         = "dom"
	MethodFailed      = "failed"
)

// Extraction is everything pulled from one article page. Empty string
// fields mean "not found" and are stored as NULL.
type Extraction struct {
	ImageURL         string
	VideoURL         string
	VideoType        string // mp4, youtube, vimeo, dailymotion
	FullContent      string
	ContentQuality   float64
	ExtractionMethod string
	Excerpt          string
	Byline           string
	SiteName         string
}

// Failed is the zero-value extraction used when the page is unusable.
func Failed() Extraction {
	return Extraction{ExtractionMethod: MethodFailed}
}

// Client fetches article pages with browser-like headers and a bounded
// timeout.
type Client struct {
	http    *http.Client
	limiter *ratelimit.HostLimiter
	log     *slog.Logger
}

// NewClient makes a page client. The limiter may be nil to disable
// per-host delays.
func NewClient(timeout time.Duration, limiter *ratelimit.HostLimiter, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}
}

// FetchPageData fetches the article page once and runs both the media
// resolver and the content extraction cascade against it.
func (c *Client) FetchPageData(ctx context.Context, pageURL string) Extraction {
	html, doc, ok := c.fetch(ctx, pageURL)
	if !ok {
		return Failed()
	}

	result := Failed()
	result.ImageURL = resolveImage(doc, pageURL)
	result.VideoURL, result.VideoType = resolveVideo(doc, html, pageURL)

	content := extractContent(doc, html, pageURL)
	if content.found {
		result.FullContent = content.text
		result.ContentQuality = content.quality
		result.ExtractionMethod = content.method
		result.Excerpt = content.excerpt
		result.Byline = content.byline
		result.SiteName = content.siteName
	}

	return result
}

// fetch downloads the page HTML. Referer is set to the page itself, which
// gets past naive hot-link protection on some news sites.
func (c *Client) fetch(ctx context.Context, pageURL string) (string, *goquery.Document, bool) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, pageURL); err != nil {
			return "", nil, false
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, false
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ar,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Referer", pageURL)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("page fetch failed", "url", pageURL, "error", err)
		return "", nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("page fetch bad status", "url", pageURL, "status", resp.StatusCode)
		return "", nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", nil, false
	}

	html := string(body)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.log.Debug("page parse failed", "url", pageURL, "error", err)
		return "", nil, false
	}

	return html, doc, true
}
