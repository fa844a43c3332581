package rss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseItems(t *testing.T, xml string) []Entry {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(xml)
	require.NoError(t, err)
	return EntriesFromFeed(feed)
}

func TestEntriesFromFeed_Fallbacks(t *testing.T) {
	xml := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>
<item>
  <title>Full item</title>
  <link>https://example.com/a</link>
  <guid>guid-a</guid>
  <description>Desc A</description>
</item>
<item>
  <title>No guid</title>
  <link>https://example.com/b</link>
</item>
<item>
  <title>Title only</title>
</item>
<item>
  <description>no title and no link, must be skipped</description>
</item>
</channel></rss>`

	entries := parseItems(t, xml)
	require.Len(t, entries, 3, "entry without url and title must be skipped")

	assert.Equal(t, "guid-a", entries[0].GUID)
	assert.Equal(t, "https://example.com/a", entries[0].URL)

	// guid falls back to link
	assert.Equal(t, "https://example.com/b", entries[1].GUID)

	// guid falls back to title, url falls back to guid
	assert.Equal(t, "Title only", entries[2].GUID)
	assert.Equal(t, "Title only", entries[2].URL)
}

func TestEntriesFromFeed_PublishedAndAuthor(t *testing.T) {
	xml := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>
<item>
  <title>Dated</title>
  <link>https://example.com/dated</link>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  <author>reporter@example.com (Jane Reporter)</author>
</item>
</channel></rss>`

	entries := parseItems(t, xml)
	require.Len(t, entries, 1)
	assert.Equal(t, 2006, entries[0].PublishedAt.Year())
	assert.NotEmpty(t, entries[0].Author)
}

func TestImageHint_Priority(t *testing.T) {
	xml := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel><title>Test</title>
<item>
  <title>Enclosure wins</title>
  <link>https://example.com/1</link>
  <enclosure url="https://cdn.example.com/enc.jpg" type="image/jpeg" length="1000"/>
  <media:thumbnail url="https://cdn.example.com/thumb.jpg"/>
</item>
<item>
  <title>Media content</title>
  <link>https://example.com/2</link>
  <media:content url="https://cdn.example.com/mc.jpg" medium="image"/>
</item>
<item>
  <title>Inline image</title>
  <link>https://example.com/3</link>
  <description>&lt;p&gt;text&lt;/p&gt;&lt;img src="https://cdn.example.com/inline.jpg"&gt;</description>
</item>
</channel></rss>`

	entries := parseItems(t, xml)
	require.Len(t, entries, 3)
	assert.Equal(t, "https://cdn.example.com/enc.jpg", entries[0].HintedImageURL)
	assert.Equal(t, "https://cdn.example.com/mc.jpg", entries[1].HintedImageURL)
	assert.Equal(t, "https://cdn.example.com/inline.jpg", entries[2].HintedImageURL)
}

func TestVideoHint(t *testing.T) {
	xml := `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel><title>Test</title>
<item>
  <title>Video enclosure</title>
  <link>https://example.com/1</link>
  <enclosure url="https://cdn.example.com/clip.mp4" type="video/mp4" length="1000"/>
</item>
<item>
  <title>YouTube in content</title>
  <link>https://example.com/2</link>
  <description>Watch: https://www.youtube.com/watch?v=dQw4w9WgXcQ now</description>
</item>
<item>
  <title>No video</title>
  <link>https://example.com/3</link>
</item>
</channel></rss>`

	entries := parseItems(t, xml)
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].HintedVideo)
	assert.Equal(t, "mp4", entries[0].HintedVideo.Type)

	require.NotNil(t, entries[1].HintedVideo)
	assert.Equal(t, "youtube", entries[1].HintedVideo.Type)

	assert.Nil(t, entries[2].HintedVideo)
}

func TestClassifyVideoURL(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc123def45": "youtube",
		"https://youtu.be/abc123def45":                "youtube",
		"https://vimeo.com/12345678":                  "vimeo",
		"https://www.dailymotion.com/video/x8abcd":    "dailymotion",
		"https://cdn.example.com/video.mp4":           "mp4",
	}
	for url, want := range cases {
		assert.Equal(t, want, ClassifyVideoURL(url), url)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewReader(5*time.Second).Fetch(context.Background(), srv.URL)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestFetch_EmptyFeedIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()

	_, err := NewReader(5*time.Second).Fetch(context.Background(), srv.URL)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestFetch_SendsIdentityHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>T</title><item><title>A</title><link>https://example.com/a</link></item></channel></rss>`))
	}))
	defer srv.Close()

	entries, err := NewReader(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, gotUA, "MujazIngest")
	assert.Contains(t, gotAccept, "application/rss+xml")
}

func TestFetch_Unreachable(t *testing.T) {
	_, err := NewReader(time.Second).Fetch(context.Background(), "http://127.0.0.1:1/feed.xml")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
}
