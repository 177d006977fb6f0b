package auditor

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/zombar/citeaudit/internal/models"
)

var (
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
	bareURLRegex      = regexp.MustCompile(`(?i)https?://[^\s<>"'\)\[\]]+`)
	anchorStartRegex  = regexp.MustCompile(`(?i)<a[\s>]`)
)

const (
	trailingPunctuation = ".,;:!?)"
	// urlStopChars end a bare URL, so every form is cut at the same place
	urlStopChars = "\t\n\f\r <>\"')[]"
)

// linkSpan is one candidate reference and the byte range it occupies
type linkSpan struct {
	start, end int
	url        string
	label      string
}

func (s linkSpan) overlaps(other linkSpan) bool {
	return s.start < other.end && other.start < s.end
}

// Extractor turns raw document text into a scored citation set
type Extractor struct {
	classifier *Classifier
	scorer     *Scorer
}

// NewExtractor creates an extractor using the classifier and scorer built from cfg
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		classifier: NewClassifier(cfg),
		scorer:     NewScorer(cfg),
	}
}

// Extract finds bracketed links, anchor tags and bare URLs, in that order
// of precedence. A candidate inside a span claimed by an earlier form is
// ignored, and a URL is kept once with the label of the form that claimed
// it first. Citations come back in order of first appearance.
func (e *Extractor) Extract(text string) []models.Citation {
	type found struct {
		url   string
		label string
		pos   int
	}

	var (
		claimed []linkSpan
		results []found
		index   = make(map[string]int)
	)

	passes := []func(string) []linkSpan{markdownLinks, anchorLinks, bareLinks}
	for _, pass := range passes {
		var kept []linkSpan
		for _, span := range pass(text) {
			if overlapsAny(span, claimed) {
				continue
			}
			kept = append(kept, span)

			u, ok := normalizeCitationURL(span.url)
			if !ok {
				continue
			}
			if i, dup := index[u]; dup {
				if span.start < results[i].pos {
					results[i].pos = span.start
				}
				continue
			}

			label := span.label
			if label == "" {
				label = u
			}
			index[u] = len(results)
			results = append(results, found{url: u, label: label, pos: span.start})
		}
		claimed = append(claimed, kept...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].pos < results[j].pos
	})

	citations := make([]models.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, e.newCitation(r.url, r.label))
	}
	return citations
}

// newCitation classifies and scores a single normalized URL
func (e *Extractor) newCitation(rawURL, label string) models.Citation {
	host := CanonicalHost(rawURL)
	sourceType := e.classifier.ClassifyHost(host)
	return models.Citation{
		URL:         rawURL,
		DisplayText: label,
		Domain:      host,
		SourceType:  sourceType,
		Reliability: e.scorer.Score(host, sourceType),
	}
}

// normalizeCitationURL cuts the URL where a bare URL would end, trims
// trailing punctuation and accepts only absolute http(s) URLs with a host
func normalizeCitationURL(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if i := strings.IndexAny(trimmed, urlStopChars); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, trailingPunctuation)
	if trimmed == "" {
		return "", false
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return "", false
	}
	return trimmed, true
}

func overlapsAny(span linkSpan, claimed []linkSpan) bool {
	for _, c := range claimed {
		if span.overlaps(c) {
			return true
		}
	}
	return false
}

// markdownLinks finds [label](url) references. A title after the URL, as in
// [label](url "title"), is dropped.
func markdownLinks(text string) []linkSpan {
	var spans []linkSpan
	for _, m := range markdownLinkRegex.FindAllStringSubmatchIndex(text, -1) {
		target := strings.Fields(text[m[4]:m[5]])
		if len(target) == 0 {
			continue
		}
		spans = append(spans, linkSpan{
			start: m[0],
			end:   m[1],
			url:   target[0],
			label: strings.TrimSpace(text[m[2]:m[3]]),
		})
	}
	return spans
}

// anchorLinks finds <a href="url">label</a> elements. Each element is
// tokenized on its own, starting at its opening tag, so raw text elements
// and comments elsewhere in the prose cannot swallow it.
func anchorLinks(text string) []linkSpan {
	var spans []linkSpan
	for pos := 0; pos < len(text); {
		loc := anchorStartRegex.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		span, ok := anchorAt(text, start)
		if !ok {
			pos = start + 2
			continue
		}
		spans = append(spans, span)
		pos = span.end
	}
	return spans
}

// anchorAt reads one anchor element beginning at text[start]. The tokenizer
// handles attribute quoting, entity unescaping and tag case; byte offsets
// are kept by summing raw token lengths.
func anchorAt(text string, start int) (linkSpan, bool) {
	z := html.NewTokenizer(strings.NewReader(text[start:]))
	if z.Next() != html.StartTagToken {
		return linkSpan{}, false
	}
	offset := len(z.Raw())

	name, hasAttr := z.TagName()
	if string(name) != "a" {
		return linkSpan{}, false
	}
	var href string
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "href" {
			href = string(val)
		}
	}
	if href == "" {
		return linkSpan{}, false
	}

	var label strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return linkSpan{}, false
		}
		offset += len(z.Raw())

		switch tt {
		case html.TextToken:
			label.Write(z.Text())
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "a" {
				return linkSpan{
					start: start,
					end:   start + offset,
					url:   strings.TrimSpace(href),
					label: strings.Join(strings.Fields(label.String()), " "),
				}, true
			}
		}
	}
}

// bareLinks finds plain http(s) URLs
func bareLinks(text string) []linkSpan {
	var spans []linkSpan
	for _, m := range bareURLRegex.FindAllStringIndex(text, -1) {
		spans = append(spans, linkSpan{start: m[0], end: m[1], url: text[m[0]:m[1]]})
	}
	return spans
}
