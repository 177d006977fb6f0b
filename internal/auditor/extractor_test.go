package auditor

import (
	"math"
	"strings"
	"testing"

	"github.com/zombar/citeaudit/internal/models"
)

func TestExtractDeduplicatesBracketedLinks(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "[A](https://x.edu/1) and [B](https://x.edu/1) plus [C](https://news.example.com)"

	citations := e.Extract(text)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d: %+v", len(citations), citations)
	}

	first := citations[0]
	if first.URL != "https://x.edu/1" || first.DisplayText != "A" {
		t.Errorf("unexpected first citation: %+v", first)
	}
	if first.Domain != "x.edu" || first.SourceType != models.SourceAcademic {
		t.Errorf("expected x.edu academic, got %s %s", first.Domain, first.SourceType)
	}
	if math.Abs(first.Reliability-1.0) > 1e-9 {
		t.Errorf("expected reliability 1.0, got %v", first.Reliability)
	}

	second := citations[1]
	if second.Domain != "news.example.com" || second.SourceType != models.SourceNews {
		t.Errorf("expected news.example.com news, got %s %s", second.Domain, second.SourceType)
	}
	if math.Abs(second.Reliability-0.70) > 1e-9 {
		t.Errorf("expected reliability 0.70, got %v", second.Reliability)
	}
}

func TestExtractBareURLAfterBracketedLink(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "See [Study](https://example.edu/paper) https://example.edu/paper."

	citations := e.Extract(text)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d: %+v", len(citations), citations)
	}
	if citations[0].DisplayText != "Study" {
		t.Errorf("expected bracketed label to win, got %q", citations[0].DisplayText)
	}
}

func TestExtractAnchorTags(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := `<p>Read <a class="ref" href="https://www.Data.gov/report?id=1&amp;x=2">the <b>report</b></a>.</p>
<A HREF='https://example.org'>Org</A>`

	citations := e.Extract(text)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d: %+v", len(citations), citations)
	}

	if citations[0].URL != "https://www.Data.gov/report?id=1&x=2" {
		t.Errorf("expected unescaped href, got %q", citations[0].URL)
	}
	if citations[0].DisplayText != "the report" {
		t.Errorf("expected label 'the report', got %q", citations[0].DisplayText)
	}
	if citations[0].Domain != "data.gov" || citations[0].SourceType != models.SourceGovernment {
		t.Errorf("expected data.gov government, got %s %s", citations[0].Domain, citations[0].SourceType)
	}

	if citations[1].DisplayText != "Org" || citations[1].SourceType != models.SourceNGO {
		t.Errorf("unexpected second citation: %+v", citations[1])
	}
}

func TestExtractTrimsTrailingPunctuation(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "Sources: https://example.com/one, https://example.com/two; and https://example.com/three! (also https://example.com/four)."

	citations := e.Extract(text)
	expected := []string{
		"https://example.com/one",
		"https://example.com/two",
		"https://example.com/three",
		"https://example.com/four",
	}
	if len(citations) != len(expected) {
		t.Fatalf("expected %d citations, got %d: %+v", len(expected), len(citations), citations)
	}
	for i, url := range expected {
		if citations[i].URL != url {
			t.Errorf("citation %d: expected %q, got %q", i, url, citations[i].URL)
		}
		if citations[i].DisplayText != url {
			t.Errorf("bare citation %d should use its URL as label, got %q", i, citations[i].DisplayText)
		}
	}
}

func TestExtractRejectsNonHTTP(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := `[FTP](ftp://files.example.com/x) [Mail](mailto:someone@example.com) [Rel](/relative/path)
<a href="javascript:void(0)">click</a> <a href="https://">empty host</a>`

	if citations := e.Extract(text); len(citations) != 0 {
		t.Errorf("expected no citations, got %+v", citations)
	}
}

func TestExtractOrdersByFirstAppearance(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "Intro https://b.example.com then [A](https://a.example.com) and later https://a.example.com"

	citations := e.Extract(text)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].URL != "https://b.example.com" || citations[1].URL != "https://a.example.com" {
		t.Errorf("expected text order b, a; got %s, %s", citations[0].URL, citations[1].URL)
	}
	if citations[1].DisplayText != "A" {
		t.Errorf("expected bracketed label for a, got %q", citations[1].DisplayText)
	}
}

func TestExtractEarlierFormKeepsLabelWhenBareComesFirst(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := "https://a.example.com is discussed in [Article A](https://a.example.com)"

	citations := e.Extract(text)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].DisplayText != "Article A" {
		t.Errorf("expected label from bracketed form, got %q", citations[0].DisplayText)
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	citations := e.Extract(`[Paper]( https://journal.example.edu/p1 "A paper" )`)

	if len(citations) != 1 || citations[0].URL != "https://journal.example.edu/p1" {
		t.Fatalf("expected title to be dropped from URL, got %+v", citations)
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	for _, text := range []string{"", "No references here.", "<p>plain html</p>"} {
		citations := e.Extract(text)
		if citations == nil || len(citations) != 0 {
			t.Errorf("expected empty citation set for %q, got %+v", text, citations)
		}
	}
}

func TestExtractIdempotentOnOwnOutput(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := `Climate data from [NOAA](https://www.noaa.gov/climate) and <a href="https://news.example.com/story">a story</a>.
A preprint at https://arxiv.org/abs/1234.5678, and commentary on https://someone.blogspot.com/post.`

	first := e.Extract(text)
	if len(first) != 4 {
		t.Fatalf("expected 4 citations, got %d: %+v", len(first), first)
	}

	urls := make([]string, len(first))
	for i, c := range first {
		urls[i] = c.URL
	}
	second := e.Extract(strings.Join(urls, "\n"))

	if len(second) != len(first) {
		t.Fatalf("expected %d citations on re-extraction, got %d", len(first), len(second))
	}
	for i := range first {
		if first[i].URL != second[i].URL || first[i].Domain != second[i].Domain ||
			first[i].SourceType != second[i].SourceType || first[i].Reliability != second[i].Reliability {
			t.Errorf("citation %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExtractIdempotentOnUnusualURLs(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
		want string
	}{
		{"apostrophe in markdown target", "[A](https://x.example.com/it's)", "https://x.example.com/it"},
		{"brackets in href", `<a href="https://x.example.com/a[1]">B</a>`, "https://x.example.com/a"},
		{"escaped angle bracket in href", `<a href="https://y.example.com/?a=&lt;b">C</a>`, "https://y.example.com/?a="},
		{"quote in href", `<a href='https://y.example.com/say"hi"'>D</a>`, "https://y.example.com/say"},
		{"upper case scheme", "[E](HTTPS://Z.example.com/Path)", "HTTPS://Z.example.com/Path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := e.Extract(tt.text)
			if len(first) != 1 || first[0].URL != tt.want {
				t.Fatalf("first extraction = %+v, want %q", first, tt.want)
			}

			second := e.Extract(first[0].URL)
			if len(second) != 1 || second[0].URL != first[0].URL {
				t.Errorf("re-extraction = %+v, want %q", second, first[0].URL)
			}
		})
	}
}

func TestExtractAnchorAfterRawTextElements(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		text string
	}{
		{"textarea", `Use <textarea> to edit. See <a href="https://a.example.edu/x">Study A</a>.`},
		{"script", `Tags like <script> run code. See <a href="https://a.example.edu/x">Study A</a>.`},
		{"style", `The <style> element styles. See <a href="https://a.example.edu/x">Study A</a>.`},
		{"open comment", `Comments start with <!-- in HTML. See <a href="https://a.example.edu/x">Study A</a>.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			citations := e.Extract(tt.text)
			if len(citations) != 1 {
				t.Fatalf("expected 1 citation, got %d: %+v", len(citations), citations)
			}
			if citations[0].DisplayText != "Study A" {
				t.Errorf("label = %q, want %q", citations[0].DisplayText, "Study A")
			}
		})
	}
}

func TestExtractUnclosedAnchorFallsBackToBareURL(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	citations := e.Extract(`<a href="https://a.example.edu/x">never closed`)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d: %+v", len(citations), citations)
	}
	if citations[0].URL != "https://a.example.edu/x" || citations[0].DisplayText != citations[0].URL {
		t.Errorf("unexpected citation: %+v", citations[0])
	}
}

func TestExtractReliabilityInRange(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	text := `https://x.edu https://a.gov https://b.org https://c.blogspot.com https://d.wordpress.org
https://twitter.com/x https://fans.tumblr.com https://example.com`

	for _, c := range e.Extract(text) {
		if c.Reliability < 0 || c.Reliability > 1 {
			t.Errorf("reliability of %s out of range: %v", c.URL, c.Reliability)
		}
	}
}
