package webpage

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mujaz/ingest/internal/textutil"
)

// Structured data is author-asserted, so a hit gets a high fixed
// confidence without measuring the text.
const jsonLDQuality = 0.85

const minJSONLDDescription = 300

var jsonLDArticleTypes = map[string]bool{
	"NewsArticle": true,
	"Article":     true,
	"BlogPosting": true,
	"WebPage":     true,
}

// extractJSONLD reads <script type="application/ld+json"> blocks and
// accepts the first article-typed object carrying a usable body.
func extractJSONLD(doc *goquery.Document, _ string, _ string) contentResult {
	result := notFound()

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var raw interface{}
		if err := json.Unmarshal([]byte(script.Text()), &raw); err != nil {
			return true // malformed block, keep scanning
		}

		for _, obj := range flattenJSONLD(raw) {
			if r, ok := articleFromJSONLD(obj); ok {
				result = r
				return false
			}
		}
		return true
	})

	return result
}

// flattenJSONLD expands top-level arrays and @graph wrappers into a flat
// list of candidate objects.
func flattenJSONLD(raw interface{}) []map[string]interface{} {
	var objects []map[string]interface{}

	switch v := raw.(type) {
	case map[string]interface{}:
		objects = append(objects, v)
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]interface{}); ok {
					objects = append(objects, m)
				}
			}
		}
	case []interface{}:
		for _, item := range v {
			objects = append(objects, flattenJSONLD(item)...)
		}
	}

	return objects
}

func articleFromJSONLD(obj map[string]interface{}) (contentResult, bool) {
	if !hasArticleType(obj["@type"]) {
		return notFound(), false
	}

	body := stringField(obj, "articleBody")
	if body == "" {
		body = stringField(obj, "text")
	}
	description := stringField(obj, "description")
	if body == "" {
		if len(description) < minJSONLDDescription {
			return notFound(), false
		}
		body = description
	}

	text := textutil.StripHTML(body)
	if text == "" {
		return notFound(), false
	}

	result := contentResult{
		found:    true,
		text:     text,
		quality:  jsonLDQuality,
		method:   MethodJSONLD,
		excerpt:  textutil.StripHTML(description),
		siteName: publisherName(obj),
		byline:   authorName(obj),
	}
	return result, true
}

// hasArticleType accepts both a single @type string and the array form.
func hasArticleType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return jsonLDArticleTypes[v]
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && jsonLDArticleTypes[s] {
				return true
			}
		}
	}
	return false
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

func authorName(obj map[string]interface{}) string {
	switch author := obj["author"].(type) {
	case string:
		return strings.TrimSpace(author)
	case map[string]interface{}:
		return stringField(author, "name")
	case []interface{}:
		if len(author) > 0 {
			if m, ok := author[0].(map[string]interface{}); ok {
				return stringField(m, "name")
			}
		}
	}
	return ""
}

func publisherName(obj map[string]interface{}) string {
	if pub, ok := obj["publisher"].(map[string]interface{}); ok {
		return stringField(pub, "name")
	}
	return ""
}
