package auditor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zombar/citeaudit/internal/models"
)

// ClassificationRule maps host substrings to a source type. Rules are
// evaluated in order and the first match wins.
type ClassificationRule struct {
	SourceType models.SourceType `yaml:"source_type"`
	Patterns   []string          `yaml:"patterns"`
}

// Thresholds holds every cut-off used by the red-flag detector, the
// individual analyzers and the summary recommendations.
type Thresholds struct {
	// red flags
	MinCitations        int                 `yaml:"min_citations"`
	LowReliability      float64             `yaml:"low_reliability"`
	LowReliabilityShare float64             `yaml:"low_reliability_share"`
	MaxConcentration    float64             `yaml:"max_concentration"`
	MaxClusterRisk      float64             `yaml:"max_cluster_risk"`
	RequiredSourceTypes []models.SourceType `yaml:"required_source_types"`
	CitationCountTarget int                 `yaml:"citation_count_target"`

	// per citation
	StrongReliability float64 `yaml:"strong_reliability"`
	WeakReliability   float64 `yaml:"weak_reliability"`

	// per domain
	DomainConcentration  float64 `yaml:"domain_concentration"`
	DomainLowReliability float64 `yaml:"domain_low_reliability"`
	DomainMaxCitations   int     `yaml:"domain_max_citations"`

	// per source type
	OverRepresentation     float64 `yaml:"over_representation"`
	UnderRepresentation    float64 `yaml:"under_representation"`
	TypeLowReliability     float64 `yaml:"type_low_reliability"`
	TypeLowDomainDiversity float64 `yaml:"type_low_domain_diversity"`

	// summary recommendations
	QualityFloor        float64 `yaml:"quality_floor"`
	ConcentrationAdvice float64 `yaml:"concentration_advice"`
	TypeDiversityFloor  float64 `yaml:"type_diversity_floor"`
	ReliabilityFloor    float64 `yaml:"reliability_floor"`
}

// Config carries the classification rules, the reliability tables and the
// thresholds. The zero value is not usable, start from DefaultConfig.
type Config struct {
	Classification   []ClassificationRule          `yaml:"classification"`
	BaseReliability  map[models.SourceType]float64 `yaml:"base_reliability"`
	TrustedSuffixes  []string                      `yaml:"trusted_suffixes"`
	TrustBoost       float64                       `yaml:"trust_boost"`
	DistrustPatterns []string                      `yaml:"distrust_patterns"`
	DistrustPenalty  float64                       `yaml:"distrust_penalty"`
	Thresholds       Thresholds                    `yaml:"thresholds"`
}

// DefaultConfig returns the built-in tables
func DefaultConfig() Config {
	return Config{
		Classification: []ClassificationRule{
			{SourceType: models.SourceAcademic, Patterns: []string{".edu", "academic", "scholar"}},
			{SourceType: models.SourceGovernment, Patterns: []string{".gov", "government"}},
			{SourceType: models.SourceNGO, Patterns: []string{".org", "ngo", "nonprofit"}},
			{SourceType: models.SourceNews, Patterns: []string{"news", "media", "press"}},
			{SourceType: models.SourceSocial, Patterns: []string{"twitter", "facebook", "reddit"}},
			{SourceType: models.SourceBlog, Patterns: []string{"blog", "medium", "substack"}},
		},
		BaseReliability: map[models.SourceType]float64{
			models.SourceAcademic:   0.90,
			models.SourceGovernment: 0.85,
			models.SourceNGO:        0.75,
			models.SourceNews:       0.70,
			models.SourceBlog:       0.50,
			models.SourceSocial:     0.30,
			models.SourceOther:      0.50,
		},
		TrustedSuffixes:  []string{".edu", ".gov", ".org"},
		TrustBoost:       0.10,
		DistrustPatterns: []string{"blogspot", "wordpress", "tumblr"},
		DistrustPenalty:  0.20,
		Thresholds: Thresholds{
			MinCitations:        3,
			LowReliability:      0.4,
			LowReliabilityShare: 0.5,
			MaxConcentration:    0.7,
			MaxClusterRisk:      0.8,
			RequiredSourceTypes: []models.SourceType{
				models.SourceAcademic,
				models.SourceGovernment,
				models.SourceNews,
			},
			CitationCountTarget: 10,

			StrongReliability: 0.8,
			WeakReliability:   0.5,

			DomainConcentration:  0.3,
			DomainLowReliability: 0.6,
			DomainMaxCitations:   5,

			OverRepresentation:     0.5,
			UnderRepresentation:    0.1,
			TypeLowReliability:     0.6,
			TypeLowDomainDiversity: 0.3,

			QualityFloor:        0.6,
			ConcentrationAdvice: 0.5,
			TypeDiversityFloor:  0.5,
			ReliabilityFloor:    0.6,
		},
	}
}

// LoadConfig overlays the YAML file at path on top of DefaultConfig. An
// empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read audit config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse audit config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate audit config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every table is complete and every ratio is in range
func (c Config) Validate() error {
	for _, st := range models.SourceTypes {
		score, ok := c.BaseReliability[st]
		if !ok {
			return fmt.Errorf("base_reliability missing source type %q", st)
		}
		if score < 0 || score > 1 {
			return fmt.Errorf("base_reliability for %q must be within [0,1], got %v", st, score)
		}
	}

	for i, rule := range c.Classification {
		if !rule.SourceType.Valid() {
			return fmt.Errorf("classification rule %d has unknown source type %q", i, rule.SourceType)
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("classification rule %d (%s) has no patterns", i, rule.SourceType)
		}
	}

	for _, st := range c.Thresholds.RequiredSourceTypes {
		if !st.Valid() {
			return fmt.Errorf("required_source_types has unknown source type %q", st)
		}
	}

	if c.TrustBoost < 0 || c.DistrustPenalty < 0 {
		return fmt.Errorf("trust_boost and distrust_penalty must not be negative")
	}
	if c.Thresholds.CitationCountTarget <= 0 {
		return fmt.Errorf("citation_count_target must be positive, got %d", c.Thresholds.CitationCountTarget)
	}
	if c.Thresholds.MinCitations < 0 || c.Thresholds.DomainMaxCitations < 0 {
		return fmt.Errorf("citation count thresholds must not be negative")
	}

	ratios := map[string]float64{
		"low_reliability":           c.Thresholds.LowReliability,
		"low_reliability_share":     c.Thresholds.LowReliabilityShare,
		"max_concentration":         c.Thresholds.MaxConcentration,
		"max_cluster_risk":          c.Thresholds.MaxClusterRisk,
		"strong_reliability":        c.Thresholds.StrongReliability,
		"weak_reliability":          c.Thresholds.WeakReliability,
		"domain_concentration":      c.Thresholds.DomainConcentration,
		"domain_low_reliability":    c.Thresholds.DomainLowReliability,
		"over_representation":       c.Thresholds.OverRepresentation,
		"under_representation":      c.Thresholds.UnderRepresentation,
		"type_low_reliability":      c.Thresholds.TypeLowReliability,
		"type_low_domain_diversity": c.Thresholds.TypeLowDomainDiversity,
		"quality_floor":             c.Thresholds.QualityFloor,
		"concentration_advice":      c.Thresholds.ConcentrationAdvice,
		"type_diversity_floor":      c.Thresholds.TypeDiversityFloor,
		"reliability_floor":         c.Thresholds.ReliabilityFloor,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}

	return nil
}
