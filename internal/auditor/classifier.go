package auditor

import (
	"strings"

	"github.com/zombar/citeaudit/internal/models"
)

// Classifier assigns a source type to a URL using ordered substring rules
type Classifier struct {
	rules []ClassificationRule
}

// NewClassifier creates a classifier from the configured rule list
func NewClassifier(cfg Config) *Classifier {
	rules := make([]ClassificationRule, len(cfg.Classification))
	for i, rule := range cfg.Classification {
		patterns := make([]string, len(rule.Patterns))
		for j, p := range rule.Patterns {
			patterns[j] = strings.ToLower(p)
		}
		rules[i] = ClassificationRule{SourceType: rule.SourceType, Patterns: patterns}
	}
	return &Classifier{rules: rules}
}

// Classify returns the source type of rawURL
func (c *Classifier) Classify(rawURL string) models.SourceType {
	return c.ClassifyHost(CanonicalHost(rawURL))
}

// ClassifyHost returns the source type of an already canonical host.
// The first rule with a matching pattern wins.
func (c *Classifier) ClassifyHost(host string) models.SourceType {
	host = strings.ToLower(host)
	for _, rule := range c.rules {
		for _, p := range rule.Patterns {
			if strings.Contains(host, p) {
				return rule.SourceType
			}
		}
	}
	return models.SourceOther
}
