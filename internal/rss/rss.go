// Package rss reads RSS/Atom feeds and normalizes their items into
// feed entries for the ingestion pipeline.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "MujazIngest/1.0 (+https://github.com/mujaz/ingest; news aggregation)"
)

// Entry is one normalized feed item. Transient: produced per fetch,
// never persisted directly.
type Entry struct {
	GUID           string
	URL            string
	Title          string
	RawContent     string
	RawDescription string
	Author         string
	PublishedAt    time.Time
	HintedImageURL string
	HintedVideo    *VideoHint
}

// VideoHint is a feed-level video candidate. Type is one of
// mp4, youtube, vimeo, dailymotion.
type VideoHint struct {
	URL  string
	Type string
}

// FetchError means the feed could not be retrieved (transport error or
// non-2xx status).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch feed %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the document was retrieved but yielded no usable
// entries. Treated as a source-level failure.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse feed %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("parse feed %s: no entries found", e.URL)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader fetches and parses feeds. Safe for concurrent use; every parse
// gets a fresh gofeed context.
type Reader struct {
	client *http.Client
}

// NewReader makes a Reader with a bounded-timeout HTTP client.
func NewReader(timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Reader{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and parses one feed URL into ordered entries.
// Returns *FetchError for transport/status problems and *ParseError when
// parsing fails or the feed has zero entries.
func (r *Reader) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: feedURL, Err: err}
	}

	entries := EntriesFromFeed(feed)
	if len(entries) == 0 {
		return nil, &ParseError{URL: feedURL}
	}

	return entries, nil
}

// EntriesFromFeed normalizes parsed feed items. Items lacking both a link
// and a title are skipped silently, never reported as errors.
func EntriesFromFeed(feed *gofeed.Feed) []Entry {
	if feed == nil {
		return nil
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if item.Link == "" && item.Title == "" {
			continue
		}

		entry := Entry{
			Title:          item.Title,
			RawContent:     item.Content,
			RawDescription: item.Description,
		}

		// GUID falls back to the first link, then the title
		entry.GUID = item.GUID
		if entry.GUID == "" {
			entry.GUID = item.Link
		}
		if entry.GUID == "" {
			entry.GUID = item.Title
		}

		// URL falls back to the GUID
		entry.URL = item.Link
		if entry.URL == "" {
			entry.URL = entry.GUID
		}

		if item.Author != nil {
			entry.Author = item.Author.Name
		}

		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = *item.UpdatedParsed
		}

		entry.HintedImageURL = imageHint(item)
		entry.HintedVideo = videoHint(item)

		entries = append(entries, entry)
	}

	return entries
}
