package auditor

import (
	"strings"

	"github.com/zombar/citeaudit/internal/models"
)

// Scorer computes reliability from a source type and host patterns
type Scorer struct {
	base     map[models.SourceType]float64
	trusted  []string
	boost    float64
	distrust []string
	penalty  float64
}

// NewScorer creates a scorer from the configured tables
func NewScorer(cfg Config) *Scorer {
	base := make(map[models.SourceType]float64, len(cfg.BaseReliability))
	for st, v := range cfg.BaseReliability {
		base[st] = v
	}
	return &Scorer{
		base:     base,
		trusted:  append([]string(nil), cfg.TrustedSuffixes...),
		boost:    cfg.TrustBoost,
		distrust: append([]string(nil), cfg.DistrustPatterns...),
		penalty:  cfg.DistrustPenalty,
	}
}

// Breakdown explains the score of host for the given source type. The
// boost and the penalty are independent, so a trusted suffix on a
// distrusted platform nets out to the base score.
func (s *Scorer) Breakdown(host string, sourceType models.SourceType) models.ReliabilityBreakdown {
	host = strings.ToLower(host)

	base, ok := s.base[sourceType]
	if !ok {
		base = s.base[models.SourceOther]
	}

	var boost float64
	for _, suffix := range s.trusted {
		if strings.HasSuffix(host, suffix) {
			boost = s.boost
			break
		}
	}

	var penalties float64
	for _, p := range s.distrust {
		if strings.Contains(host, p) {
			penalties = s.penalty
			break
		}
	}

	return models.ReliabilityBreakdown{
		BaseScore:   base,
		DomainBoost: boost,
		Penalties:   penalties,
		FinalScore:  clamp01(base + boost - penalties),
	}
}

// Score returns the final reliability of host
func (s *Scorer) Score(host string, sourceType models.SourceType) float64 {
	return s.Breakdown(host, sourceType).FinalScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
