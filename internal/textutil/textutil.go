// Package textutil has small helpers for cleaning article text before
// hashing and storage.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</\s*(script|style)\s*>`)
	spaceRe  = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes tags from HTML and returns plain text.
// Script and style bodies are dropped entirely, <br> and </p> become breaks.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	text := scriptRe.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = tagRe.ReplaceAllString(text, " ")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	return Normalize(text)
}

// Normalize collapses runs of whitespace and trims the result.
// Paragraph breaks (double newlines) are kept.
func Normalize(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ContentHash builds the dedup hash for an article: SHA256 of the
// lowercased, trimmed title plus stripped content, truncated to 32 hex
// characters. Case and surrounding whitespace never change the hash.
func ContentHash(title, content string) string {
	basis := strings.ToLower(strings.TrimSpace(title + StripHTML(content)))
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])[:32]
}

// Boilerplate phrases seen in scraped article bodies. English and Arabic,
// matched case-insensitively as substrings.
var boilerplatePhrases = []string{
	"all rights reserved",
	"copyright ©",
	"subscribe to our newsletter",
	"sign up for our newsletter",
	"follow us on",
	"share this article",
	"read more:",
	"read also:",
	"related articles",
	"click here",
	"advertisement",
	"cookie policy",
	"privacy policy",
	"terms of use",
	"جميع الحقوق محفوظة",
	"اشترك في النشرة",
	"اشترك في نشرتنا",
	"تابعنا على",
	"تابعونا على",
	"شارك المقال",
	"شارك هذا المقال",
	"اقرأ أيضا",
	"اقرأ أيضًا",
	"اقرأ المزيد",
	"مواضيع ذات صلة",
	"اضغط هنا",
	"إعلان",
	"سياسة الخصوصية",
}

// IsBoilerplate reports whether a paragraph is a known junk phrase
// rather than article text.
func IsBoilerplate(paragraph string) bool {
	p := strings.ToLower(strings.TrimSpace(paragraph))
	if p == "" {
		return true
	}
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(p, phrase) {
			return true
		}
	}
	return false
}

// SplitParagraphs re-segments flat text into pseudo-paragraphs of roughly
// targetLen characters, grouped on sentence boundaries. Used when a page
// has no usable <p> structure.
func SplitParagraphs(text string, targetLen int) []string {
	if targetLen <= 0 {
		targetLen = 150
	}

	text = Normalize(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var paragraphs []string
	var current strings.Builder
	for _, s := range sentences {
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(s)

		if current.Len() >= targetLen {
			paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
	}

	return paragraphs
}

// splitSentences cuts text on sentence-ending punctuation, including the
// Arabic question mark.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?', '؟':
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
