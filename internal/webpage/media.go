package webpage

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mujaz/ingest/internal/rss"
)

// Filenames that are chrome, not article imagery.
var junkImageRe = regexp.MustCompile(`(?i)(logo|icon|avatar|button|banner|ad)[^/]*$`)

// resolveImage finds the best article image on the page, walking the
// strategies in priority order: og:image, twitter:image, schema.org
// itemprop, link rel=image_src, then the first plausible image inside a
// content container.
func resolveImage(doc *goquery.Document, pageURL string) string {
	metaSelectors := []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:secure_url"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	}
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if u := ResolveURL(content, pageURL); u != "" {
				return u
			}
		}
	}

	if node := doc.Find(`[itemprop="image"]`).First(); node.Length() > 0 {
		candidate, ok := node.Attr("content")
		if !ok {
			candidate, _ = node.Attr("src")
		}
		if u := ResolveURL(candidate, pageURL); u != "" {
			return u
		}
	}

	if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok {
		if u := ResolveURL(href, pageURL); u != "" {
			return u
		}
	}

	return firstContentImage(doc, pageURL)
}

// firstContentImage scans images inside article-like containers, skipping
// obvious chrome (logos, icons, ad banners) and tiny images.
func firstContentImage(doc *goquery.Document, pageURL string) string {
	containers := "article img, main img, [class*=article] img, [class*=content] img, [class*=post] img"

	var found string
	doc.Find(containers).EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		if junkImageRe.MatchString(src) {
			return true
		}
		if tooSmall(img) {
			return true
		}

		if u := ResolveURL(src, pageURL); u != "" {
			found = u
			return false
		}
		return true
	})

	return found
}

// tooSmall rejects images whose declared dimensions are below thumbnail
// size. Images without declared dimensions are kept.
func tooSmall(img *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if v, ok := img.Attr(attr); ok {
			n := 0
			for _, r := range v {
				if r < '0' || r > '9' {
					break
				}
				n = n*10 + int(r-'0')
			}
			if n > 0 && n < 100 {
				return true
			}
		}
	}
	return false
}

// resolveVideo finds a video on the page, in priority order: og:video
// metas, twitter:player, <video> elements, platform iframes, then a regex
// scan of the raw body. The returned URL is normalized to its canonical
// watch form.
func resolveVideo(doc *goquery.Document, html, pageURL string) (string, string) {
	metaSelectors := []string{
		`meta[property="og:video"]`,
		`meta[property="og:video:url"]`,
		`meta[property="og:video:secure_url"]`,
		`meta[name="twitter:player"]`,
	}
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if u := canonicalVideo(content, pageURL); u != "" {
				return u, rss.ClassifyVideoURL(u)
			}
		}
	}

	if src, ok := doc.Find("video[src]").First().Attr("src"); ok {
		if u := canonicalVideo(src, pageURL); u != "" {
			return u, rss.ClassifyVideoURL(u)
		}
	}
	if src, ok := doc.Find("video source[src]").First().Attr("src"); ok {
		if u := canonicalVideo(src, pageURL); u != "" {
			return u, rss.ClassifyVideoURL(u)
		}
	}

	var iframeURL string
	doc.Find("iframe[src]").EachWithBreak(func(_ int, frame *goquery.Selection) bool {
		src, _ := frame.Attr("src")
		lower := strings.ToLower(src)
		if strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") ||
			strings.Contains(lower, "vimeo.com") || strings.Contains(lower, "dailymotion.com") {
			iframeURL = src
			return false
		}
		return true
	})
	if u := canonicalVideo(iframeURL, pageURL); u != "" {
		return u, rss.ClassifyVideoURL(u)
	}

	// Last resort: platform URLs anywhere in the body
	if raw := rss.FindPlatformVideoURL(html); raw != "" {
		if u := canonicalVideo(raw, pageURL); u != "" {
			return u, rss.ClassifyVideoURL(u)
		}
	}

	return "", ""
}

// canonicalVideo resolves then normalizes a video candidate, discarding
// anything that does not end up as an absolute URL.
func canonicalVideo(raw, pageURL string) string {
	if raw == "" {
		return ""
	}
	resolved := ResolveURL(raw, pageURL)
	if resolved == "" {
		return ""
	}
	return NormalizeVideoURL(resolved)
}
