package textutil

import (
	"strings"
	"testing"
)

func TestStripHTML(t *testing.T) {
	in := `<p>Hello <b>world</b></p><script>var x = 1;</script><p>Second</p>`
	out := StripHTML(in)

	if strings.Contains(out, "<") || strings.Contains(out, ">") {
		t.Errorf("tags left in output: %q", out)
	}
	if strings.Contains(out, "var x") {
		t.Errorf("script body left in output: %q", out)
	}
	if !strings.Contains(out, "Hello world") {
		t.Errorf("expected text preserved, got %q", out)
	}
}

func TestStripHTML_Entities(t *testing.T) {
	out := StripHTML("Fish &amp; Chips &lt;now&gt;")
	if out != "Fish & Chips <now>" {
		t.Errorf("entities not decoded: %q", out)
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("Breaking News", "<p>Something happened today.</p>")
	b := ContentHash("Breaking News", "<p>Something happened today.</p>")
	if a != b {
		t.Fatalf("same input produced different hashes: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("hash must be 32 hex chars, got %d", len(a))
	}
}

func TestContentHash_CaseAndWhitespaceInsensitive(t *testing.T) {
	base := ContentHash("Breaking News", "Something happened today.")

	cases := map[string][2]string{
		"upper title":         {"BREAKING NEWS", "Something happened today."},
		"trailing whitespace": {"Breaking News", "Something happened today.   \n"},
		"mixed case body":     {"Breaking News", "SOMETHING Happened TODAY."},
	}
	for name, c := range cases {
		if got := ContentHash(c[0], c[1]); got != base {
			t.Errorf("%s: hash changed: %s vs %s", name, got, base)
		}
	}
}

func TestContentHash_DifferentContentDiffers(t *testing.T) {
	a := ContentHash("Title", "First article body.")
	b := ContentHash("Title", "Second article body.")
	if a == b {
		t.Fatal("different content produced identical hashes")
	}
}

func TestIsBoilerplate(t *testing.T) {
	junk := []string{
		"All rights reserved.",
		"Subscribe to our newsletter for daily updates",
		"جميع الحقوق محفوظة 2024",
		"اقرأ أيضا: المزيد من الأخبار",
		"   ",
	}
	for _, p := range junk {
		if !IsBoilerplate(p) {
			t.Errorf("expected boilerplate: %q", p)
		}
	}

	real := []string{
		"The ministry announced a new budget for the coming year.",
		"أعلنت الوزارة عن ميزانية جديدة للعام المقبل بقيمة كبيرة.",
	}
	for _, p := range real {
		if IsBoilerplate(p) {
			t.Errorf("real paragraph flagged as boilerplate: %q", p)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := strings.Repeat("This is a sentence about the news. ", 20)
	paragraphs := SplitParagraphs(text, 150)

	if len(paragraphs) < 2 {
		t.Fatalf("expected several pseudo-paragraphs, got %d", len(paragraphs))
	}
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			t.Error("empty paragraph in output")
		}
	}
}

func TestSplitParagraphs_Empty(t *testing.T) {
	if got := SplitParagraphs("   ", 150); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}
