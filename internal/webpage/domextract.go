package webpage

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mujaz/ingest/internal/textutil"
)

const (
	minDOMContentChars = 200
	minParagraphChars  = 40
	pseudoParagraphLen = 150
)

// Boilerplate containers removed before looking for content. Tag names
// first, then class/id patterns common on news sites.
var boilerplateSelectors = []string{
	"nav", "footer", "aside", "header", "form", "script", "style", "noscript",
	"[class*=sidebar]", "[id*=sidebar]",
	"[class*=comment]", "[id*=comment]",
	"[class*=newsletter]", "[class*=subscribe]",
	"[class*=related]", "[class*=recommend]",
	"[class*=share]", "[class*=social]",
	"[class*=advert]", "[class*=-ad-]", "[id*=advert]",
	"[class*=cookie]", "[class*=popup]", "[class*=modal]",
	"[class*=breadcrumb]", "[class*=pagination]", "[class*=tags]",
}

// Content containers in priority order: semantic tags, common CMS class
// names, Arabic news-site variants, then the generic buckets.
var containerSelectors = []string{
	"article",
	"[itemprop=articleBody]",
	".article-content", ".article-body", ".article__content", ".article-text",
	".post-content", ".post-body",
	".entry-content",
	".story-content", ".story-body",
	".news-content", ".news-details", ".news-story",
	".article-details", ".details-content",
	"#article-body", "#story-body",
	"#content", "main",
}

// extractDOM is the last-resort heuristic scraper. It works on a fresh
// DOM built from the raw HTML because it mutates the tree while removing
// boilerplate.
func extractDOM(_ *goquery.Document, html, _ string) contentResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return notFound()
	}

	for _, sel := range boilerplateSelectors {
		doc.Find(sel).Remove()
	}

	container, named := findContainer(doc)
	if container == nil {
		return notFound()
	}

	paragraphs := collectParagraphs(container)

	// A page with no usable <p> structure gets re-segmented from flat text
	if len(paragraphs) < 2 {
		paragraphs = nil
		for _, p := range textutil.SplitParagraphs(container.Text(), pseudoParagraphLen) {
			if len(p) >= minParagraphChars && !textutil.IsBoilerplate(p) {
				paragraphs = append(paragraphs, p)
			}
		}
	}

	text := strings.Join(paragraphs, "\n\n")
	if len(text) < minDOMContentChars {
		return notFound()
	}

	return contentResult{
		found:   true,
		text:    text,
		quality: domQuality(paragraphs, named),
		method:  MethodDOM,
	}
}

// findContainer returns the first named container with text, or the best
// scoring <div> as fallback. The bool reports whether a named container
// matched.
func findContainer(doc *goquery.Document) (*goquery.Selection, bool) {
	for _, sel := range containerSelectors {
		node := doc.Find(sel).First()
		if node.Length() > 0 && len(strings.TrimSpace(node.Text())) >= minDOMContentChars {
			return node, true
		}
	}

	// Fallback: the div with the best paragraphCount*100 + textLength
	// score, among divs with at least 2 paragraphs and 300 chars
	var best *goquery.Selection
	bestScore := 0
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		pCount := div.ChildrenFiltered("p").Length()
		textLen := len(strings.TrimSpace(div.Text()))
		if pCount < 2 || textLen < 300 {
			return
		}
		score := pCount*100 + textLen
		if score > bestScore {
			bestScore = score
			best = div
		}
	})

	return best, false
}

// collectParagraphs gathers <p> texts, dropping short fragments and known
// boilerplate phrases.
func collectParagraphs(container *goquery.Selection) []string {
	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := textutil.Normalize(p.Text())
		if len(text) < minParagraphChars {
			return
		}
		if textutil.IsBoilerplate(text) {
			return
		}
		paragraphs = append(paragraphs, text)
	})
	return paragraphs
}

// domQuality scores the heuristic result: paragraph count (0-0.3),
// average paragraph length (0-0.3), total length (0-0.2), plus a 0.2
// structure bonus when a named container matched. Capped at 1.0.
func domQuality(paragraphs []string, namedContainer bool) float64 {
	if len(paragraphs) == 0 {
		return 0
	}

	total := 0
	for _, p := range paragraphs {
		total += len(p)
	}
	avg := float64(total) / float64(len(paragraphs))

	paragraphScore := float64(len(paragraphs)) * 0.05
	if paragraphScore > 0.3 {
		paragraphScore = 0.3
	}

	avgScore := avg / 200 * 0.3
	if avgScore > 0.3 {
		avgScore = 0.3
	}

	totalScore := float64(total) / 2000 * 0.2
	if totalScore > 0.2 {
		totalScore = 0.2
	}

	structureScore := 0.0
	if namedContainer {
		structureScore = 0.2
	}

	return capQuality(paragraphScore + avgScore + totalScore + structureScore)
}
