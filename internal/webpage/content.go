package webpage

import (
	"github.com/PuerkitoBio/goquery"
)

// contentResult is the discriminated outcome of one extraction strategy.
// found=false means "try the next one", never an error.
type contentResult struct {
	found    bool
	text     string
	quality  float64
	method   string
	excerpt  string
	byline   string
	siteName string
}

func notFound() contentResult { return contentResult{} }

// strategyFunc is one extraction technique. Strategies get the shared
// parsed document plus the raw HTML so they can build a fresh DOM context
// when they need to mutate it.
type strategyFunc func(doc *goquery.Document, html, pageURL string) contentResult

// Ordered cascade: author-asserted structured data first, reader mode
// second, heuristic DOM scraping as the genuine last resort. The order is
// data, so a strategy can be disabled or reordered without touching the
// others.
var contentStrategies = []strategyFunc{
	extractJSONLD,
	extractReadability,
	extractDOM,
}

// extractContent runs the cascade and takes the first hit.
func extractContent(doc *goquery.Document, html, pageURL string) contentResult {
	for _, strategy := range contentStrategies {
		if result := strategy(doc, html, pageURL); result.found {
			return result
		}
	}
	return notFound()
}

func capQuality(q float64) float64 {
	if q > 1.0 {
		return 1.0
	}
	if q < 0 {
		return 0
	}
	return q
}
