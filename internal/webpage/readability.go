package webpage

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mujaz/ingest/internal/textutil"
)

const minReadabilityChars = 200

// extractReadability runs the reader-mode algorithm over a fresh DOM
// built from the raw HTML. Accepted only when it yields a substantial
// body; quality is derived from length, metadata presence, and paragraph
// count on top of a 0.5 base.
func extractReadability(_ *goquery.Document, html, pageURL string) contentResult {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return notFound()
	}

	text := textutil.Normalize(article.TextContent)
	if len(text) < minReadabilityChars {
		return notFound()
	}

	return contentResult{
		found:    true,
		text:     text,
		quality:  readabilityQuality(text, article),
		method:   MethodReadability,
		excerpt:  strings.TrimSpace(article.Excerpt),
		byline:   strings.TrimSpace(article.Byline),
		siteName: strings.TrimSpace(article.SiteName),
	}
}

// readabilityQuality: base 0.5, additive bonuses, capped at 1.0.
func readabilityQuality(text string, article readability.Article) float64 {
	quality := 0.5

	// Length bonus, saturating at ~3000 chars
	lengthBonus := float64(len(text)) / 3000 * 0.2
	if lengthBonus > 0.2 {
		lengthBonus = 0.2
	}
	quality += lengthBonus

	if strings.TrimSpace(article.Excerpt) != "" {
		quality += 0.05
	}
	if strings.TrimSpace(article.Byline) != "" {
		quality += 0.05
	}
	if strings.TrimSpace(article.SiteName) != "" {
		quality += 0.05
	}

	// Paragraph bonus
	paragraphs := strings.Count(text, "\n\n") + 1
	paragraphBonus := float64(paragraphs) * 0.03
	if paragraphBonus > 0.15 {
		paragraphBonus = 0.15
	}
	quality += paragraphBonus

	return capQuality(quality)
}
