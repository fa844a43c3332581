package webpage

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeIDRe     = regexp.MustCompile(`(?:youtube\.com/(?:embed/|shorts/|watch\?(?:.*&)?v=)|youtu\.be/)([\w-]{6,})`)
	vimeoIDRe       = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
	dailymotionIDRe = regexp.MustCompile(`dailymotion\.com/(?:embed/)?video/([0-9A-Za-z]+)`)
)

// ResolveURL canonicalizes a URL discovered inside a page. Absolute URLs
// pass through, protocol-relative get https:, relative paths resolve
// against the page URL. Anything that still is not an absolute http(s)
// URL is discarded (empty return) rather than stored malformed.
func ResolveURL(raw, pageURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if !u.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil || !base.IsAbs() {
			return ""
		}
		u = base.ResolveReference(u)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	return u.String()
}

// NormalizeVideoURL rewrites platform video URLs to their canonical
// watch-page form (embed player URLs become shareable pages). Unknown
// URLs come back unchanged.
func NormalizeVideoURL(raw string) string {
	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		if m := youtubeIDRe.FindStringSubmatch(raw); m != nil {
			return "https://www.youtube.com/watch?v=" + m[1]
		}
	case strings.Contains(lower, "vimeo.com"):
		if m := vimeoIDRe.FindStringSubmatch(raw); m != nil {
			return "https://vimeo.com/" + m[1]
		}
	case strings.Contains(lower, "dailymotion.com"):
		if m := dailymotionIDRe.FindStringSubmatch(raw); m != nil {
			return "https://www.dailymotion.com/video/" + m[1]
		}
	}

	return raw
}
