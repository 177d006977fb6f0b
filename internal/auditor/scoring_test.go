package auditor

import (
	"math"
	"testing"

	"github.com/zombar/citeaudit/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		url      string
		expected models.SourceType
	}{
		{"https://www.stanford.edu/research", models.SourceAcademic},
		{"https://scholar.google.com/citations", models.SourceAcademic},
		{"https://academic.oup.com/article", models.SourceAcademic},
		{"https://www.cdc.gov/flu", models.SourceGovernment},
		{"https://government.nl/docs", models.SourceGovernment},
		{"https://www.redcross.org", models.SourceNGO},
		{"https://nonprofitquarterly.com", models.SourceNGO},
		{"https://news.example.com", models.SourceNews},
		{"https://www.socialmedia.com", models.SourceNews},
		{"https://pressgazette.co.uk", models.SourceNews},
		{"https://twitter.com/user/status/1", models.SourceSocial},
		{"https://www.reddit.com/r/science", models.SourceSocial},
		{"https://someone.substack.com/p/post", models.SourceBlog},
		{"https://myblog.net/entry", models.SourceBlog},
		{"https://example.com", models.SourceOther},
		// first match wins: academic before blog
		{"https://blog.mit.edu/post", models.SourceAcademic},
		// .org before blog
		{"https://example.wordpress.org", models.SourceNGO},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := c.Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestClassifyCustomRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classification = append([]ClassificationRule{
		{SourceType: models.SourceNews, Patterns: []string{"Reuters"}},
	}, cfg.Classification...)

	c := NewClassifier(cfg)
	if got := c.Classify("https://www.reuters.com/world"); got != models.SourceNews {
		t.Errorf("expected custom rule to classify reuters as news, got %q", got)
	}
}

func TestScorerBreakdown(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		name       string
		host       string
		sourceType models.SourceType
		base       float64
		boost      float64
		penalties  float64
		final      float64
	}{
		{"academic edu clamps to one", "x.edu", models.SourceAcademic, 0.90, 0.10, 0, 1.0},
		{"government gov", "cdc.gov", models.SourceGovernment, 0.85, 0.10, 0, 0.95},
		{"ngo org", "redcross.org", models.SourceNGO, 0.75, 0.10, 0, 0.85},
		{"news no adjustment", "news.example.com", models.SourceNews, 0.70, 0, 0, 0.70},
		{"blog penalty", "someone.blogspot.com", models.SourceBlog, 0.50, 0, 0.20, 0.30},
		{"social", "twitter.com", models.SourceSocial, 0.30, 0, 0, 0.30},
		{"other", "example.com", models.SourceOther, 0.50, 0, 0, 0.50},
		{"boost and penalty cancel", "wordpress.org", models.SourceNGO, 0.75, 0.10, 0.20, 0.65},
		{"social penalty", "fans.tumblr.com", models.SourceSocial, 0.30, 0, 0.20, 0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := s.Breakdown(tt.host, tt.sourceType)
			if math.Abs(b.BaseScore-tt.base) > 1e-9 {
				t.Errorf("base = %v, want %v", b.BaseScore, tt.base)
			}
			if math.Abs(b.DomainBoost-tt.boost) > 1e-9 {
				t.Errorf("boost = %v, want %v", b.DomainBoost, tt.boost)
			}
			if math.Abs(b.Penalties-tt.penalties) > 1e-9 {
				t.Errorf("penalties = %v, want %v", b.Penalties, tt.penalties)
			}
			if math.Abs(b.FinalScore-tt.final) > 1e-9 {
				t.Errorf("final = %v, want %v", b.FinalScore, tt.final)
			}
			if got := s.Score(tt.host, tt.sourceType); got != b.FinalScore {
				t.Errorf("Score = %v, want breakdown final %v", got, b.FinalScore)
			}
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrustBoost = 0.5
	cfg.DistrustPenalty = 0.9
	s := NewScorer(cfg)

	hosts := []string{"x.edu", "a.gov", "b.org", "c.blogspot.com", "d.wordpress.org", "e.com"}
	for _, host := range hosts {
		for _, st := range models.SourceTypes {
			score := s.Score(host, st)
			if score < 0 || score > 1 {
				t.Errorf("Score(%q, %q) = %v, outside [0,1]", host, st, score)
			}
		}
	}
}
