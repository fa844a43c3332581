package rss

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/extensions"
)

// Feed-level media hints. These come from RSS-native fields and are hints
// only: webpage extraction usually finds better quality media, so the
// pipeline prefers resolver output when both exist.

var (
	youtubeRe     = regexp.MustCompile(`https?://(?:www\.)?(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)[\w-]{6,}[^"'\s<>]*`)
	vimeoRe       = regexp.MustCompile(`https?://(?:www\.|player\.)?vimeo\.com/(?:video/)?\d+[^"'\s<>]*`)
	dailymotionRe = regexp.MustCompile(`https?://(?:www\.)?dailymotion\.com/(?:video|embed/video)/[\w]+[^"'\s<>]*`)
)

// imageHint picks an image from RSS-native fields, in priority order:
// enclosure, media:content, media:thumbnail, inline <img>, iTunes image.
func imageHint(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if u := mediaExtensionURL(item, "content", func(attrs map[string]string) bool {
		return strings.HasPrefix(attrs["type"], "image/") || attrs["medium"] == "image"
	}); u != "" {
		return u
	}

	if u := mediaExtensionURL(item, "thumbnail", nil); u != "" {
		return u
	}

	if u := firstInlineImage(item.Content); u != "" {
		return u
	}
	if u := firstInlineImage(item.Description); u != "" {
		return u
	}

	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		return item.ITunesExt.Image
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return ""
}

// videoHint picks a video from enclosures, media extensions, or known
// video-platform URLs inside the entry HTML.
func videoHint(item *gofeed.Item) *VideoHint {
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "video/") && enc.URL != "" {
			return &VideoHint{URL: enc.URL, Type: ClassifyVideoURL(enc.URL)}
		}
	}

	if u := mediaExtensionURL(item, "content", func(attrs map[string]string) bool {
		return attrs["medium"] == "video" || strings.HasPrefix(attrs["type"], "video/")
	}); u != "" {
		return &VideoHint{URL: u, Type: ClassifyVideoURL(u)}
	}

	if u := mediaGroupVideoURL(item); u != "" {
		return &VideoHint{URL: u, Type: ClassifyVideoURL(u)}
	}

	for _, html := range []string{item.Content, item.Description} {
		if u := FindPlatformVideoURL(html); u != "" {
			return &VideoHint{URL: u, Type: ClassifyVideoURL(u)}
		}
	}

	return nil
}

// mediaExtensionURL scans media:<name> extension elements and returns the
// first url attribute the accept filter allows.
func mediaExtensionURL(item *gofeed.Item, name string, accept func(map[string]string) bool) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, e := range media[name] {
		url := e.Attrs["url"]
		if url == "" {
			continue
		}
		if accept == nil || accept(e.Attrs) {
			return url
		}
	}
	return ""
}

// mediaGroupVideoURL looks inside media:group children for a video content
// element.
func mediaGroupVideoURL(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, group := range media["group"] {
		if u := childContentVideoURL(group.Children); u != "" {
			return u
		}
	}
	return ""
}

func childContentVideoURL(children map[string][]ext.Extension) string {
	for _, e := range children["content"] {
		url := e.Attrs["url"]
		if url == "" {
			continue
		}
		if e.Attrs["medium"] == "video" || strings.HasPrefix(e.Attrs["type"], "video/") {
			return url
		}
	}
	return ""
}

// firstInlineImage parses an HTML snippet and returns the src of the
// first <img>.
func firstInlineImage(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}

// FindPlatformVideoURL scans HTML for a YouTube, Vimeo, or Dailymotion URL.
func FindPlatformVideoURL(html string) string {
	if html == "" {
		return ""
	}
	for _, re := range []*regexp.Regexp{youtubeRe, vimeoRe, dailymotionRe} {
		if m := re.FindString(html); m != "" {
			return m
		}
	}
	return ""
}

// ClassifyVideoURL maps a video URL to its platform type. Anything that is
// not a known platform counts as a direct mp4 file.
func ClassifyVideoURL(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return "youtube"
	case strings.Contains(lower, "vimeo.com"):
		return "vimeo"
	case strings.Contains(lower, "dailymotion.com"):
		return "dailymotion"
	default:
		return "mp4"
	}
}
