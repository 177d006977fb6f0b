package auditor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/zombar/citeaudit/internal/models"
)

// MetricsCache memoizes aggregate metrics by citation-set fingerprint.
// Implementations must return a value equal to the one stored.
type MetricsCache interface {
	Get(key string) (models.AggregateMetrics, bool)
	Set(key string, value models.AggregateMetrics, ttl time.Duration)
}

// DefaultCacheTTL is used when WithCache is given a non-positive TTL
const DefaultCacheTTL = 5 * time.Minute

// Engine computes aggregate metrics, red flags and per-entity analyses
type Engine struct {
	cfg    Config
	scorer *Scorer
	cache  MetricsCache
	ttl    time.Duration
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithCache memoizes Aggregate results in c for ttl
func WithCache(c MetricsCache, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		e.cache = c
		e.ttl = ttl
	}
}

// NewEngine creates an engine. Without WithCache every call recomputes.
func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		scorer: NewScorer(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate computes bias, diversity and quality together, going through
// the cache when one is configured
func (e *Engine) Aggregate(citations []models.Citation) models.AggregateMetrics {
	if e.cache == nil {
		return e.aggregate(citations)
	}

	key := e.Fingerprint(citations)
	if cached, ok := e.cache.Get(key); ok {
		return cached.Clone()
	}

	m := e.aggregate(citations)
	e.cache.Set(key, m.Clone(), e.ttl)
	return m
}

// Bias returns the concentration metrics of citations
func (e *Engine) Bias(citations []models.Citation) models.BiasMetrics {
	return e.Aggregate(citations).Bias
}

// Diversity returns the diversity metrics of citations
func (e *Engine) Diversity(citations []models.Citation) models.DiversityMetrics {
	return e.Aggregate(citations).Diversity
}

// Quality returns the composite quality scores of citations
func (e *Engine) Quality(citations []models.Citation) models.QualityScores {
	return e.Aggregate(citations).Quality
}

// Fingerprint returns the cache key of a citation set. The key follows
// input order because ties on the top domain resolve by first appearance.
func (e *Engine) Fingerprint(citations []models.Citation) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(e.cfg.Thresholds.CitationCountTarget)))
	for _, c := range citations {
		h.Write([]byte{'\n'})
		h.Write([]byte(c.URL))
		h.Write([]byte{'|'})
		h.Write([]byte(c.Domain))
		h.Write([]byte{'|'})
		h.Write([]byte(c.SourceType))
		h.Write([]byte{'|'})
		h.Write([]byte(strconv.FormatFloat(c.Reliability, 'g', -1, 64)))
	}
	return "citeaudit:metrics:" + hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) aggregate(citations []models.Citation) models.AggregateMetrics {
	bias := computeBias(citations)
	diversity := computeDiversity(citations)
	return models.AggregateMetrics{
		Bias:      bias,
		Diversity: diversity,
		Quality:   computeQuality(citations, diversity, e.cfg.Thresholds.CitationCountTarget),
	}
}

func computeBias(citations []models.Citation) models.BiasMetrics {
	domains := countDomains(citations)
	types := countSourceTypes(citations)

	bias := models.BiasMetrics{
		DomainDistribution:     domains,
		SourceTypeDistribution: types,
	}
	total := len(citations)
	if total == 0 {
		return bias
	}

	// strict comparison keeps the first-seen domain on ties
	var top models.DomainCount
	for _, d := range domains {
		if d.Count > top.Count {
			top = d
		}
	}
	var maxType int
	for _, t := range types {
		if t.Count > maxType {
			maxType = t.Count
		}
	}

	bias.TopDomain = top.Domain
	bias.TopDomainPercentage = float64(top.Count) / float64(total)
	bias.SingleClusterRisk = float64(maxType) / float64(total)
	bias.SourceConcentration = (bias.TopDomainPercentage + bias.SingleClusterRisk) / 2
	return bias
}

func computeDiversity(citations []models.Citation) models.DiversityMetrics {
	total := len(citations)
	if total == 0 {
		return models.DiversityMetrics{}
	}

	uniqueDomains := len(countDomains(citations))
	uniqueTypes := len(countSourceTypes(citations))

	d := models.DiversityMetrics{
		UniqueDomains:        uniqueDomains,
		UniqueSourceTypes:    uniqueTypes,
		DomainDiversity:      float64(uniqueDomains) / float64(total),
		SourceTypeDiversity:  float64(uniqueTypes) / float64(total),
		ReliabilityDiversity: min(1, variance(reliabilities(citations))*4),
	}
	d.OverallDiversity = 0.4*d.DomainDiversity + 0.4*d.SourceTypeDiversity + 0.2*d.ReliabilityDiversity
	return d
}

func computeQuality(citations []models.Citation, diversity models.DiversityMetrics, target int) models.QualityScores {
	total := len(citations)
	if total == 0 {
		return models.QualityScores{}
	}

	q := models.QualityScores{
		SourceReliability:  mean(reliabilities(citations)),
		DiversityScore:     diversity.OverallDiversity,
		CitationCountScore: min(1, float64(total)/float64(target)),
	}
	q.OverallQuality = 0.4*q.SourceReliability + 0.3*q.DiversityScore + 0.3*q.CitationCountScore
	return q
}

// countDomains tallies citations per domain in first-seen order
func countDomains(citations []models.Citation) []models.DomainCount {
	counts := []models.DomainCount{}
	index := make(map[string]int)
	for _, c := range citations {
		if i, ok := index[c.Domain]; ok {
			counts[i].Count++
			continue
		}
		index[c.Domain] = len(counts)
		counts = append(counts, models.DomainCount{Domain: c.Domain, Count: 1})
	}
	return counts
}

// countSourceTypes tallies citations per source type in first-seen order
func countSourceTypes(citations []models.Citation) []models.SourceTypeCount {
	counts := []models.SourceTypeCount{}
	index := make(map[models.SourceType]int)
	for _, c := range citations {
		if i, ok := index[c.SourceType]; ok {
			counts[i].Count++
			continue
		}
		index[c.SourceType] = len(counts)
		counts = append(counts, models.SourceTypeCount{SourceType: c.SourceType, Count: 1})
	}
	return counts
}

func reliabilities(citations []models.Citation) []float64 {
	out := make([]float64, len(citations))
	for i, c := range citations {
		out[i] = c.Reliability
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}
