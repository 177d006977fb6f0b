package auditor

import (
	"fmt"
	"slices"
	"sort"

	"github.com/zombar/citeaudit/internal/models"
)

// AnalyzeCitations reports on each citation individually, in input order
func (e *Engine) AnalyzeCitations(citations []models.Citation) []models.CitationAnalysis {
	th := e.cfg.Thresholds
	domainRanks := rankDomains(countDomains(citations))
	typeRanks := rankSourceTypes(countSourceTypes(citations))

	analyses := make([]models.CitationAnalysis, 0, len(citations))
	for i, c := range citations {
		breakdown := e.scorer.Breakdown(c.Domain, c.SourceType)
		a := models.CitationAnalysis{
			Index:           i,
			URL:             c.URL,
			DisplayText:     c.DisplayText,
			Domain:          c.Domain,
			SourceType:      c.SourceType,
			Reliability:     breakdown,
			DomainRank:      domainRanks[c.Domain],
			SourceTypeRank:  typeRanks[c.SourceType],
			Strengths:       []string{},
			Weaknesses:      []string{},
			Recommendations: []string{},
		}

		if c.Reliability >= th.StrongReliability {
			a.Strengths = append(a.Strengths, fmt.Sprintf("High reliability score (%.2f)", c.Reliability))
		}
		if c.Reliability < th.WeakReliability {
			a.Weaknesses = append(a.Weaknesses, fmt.Sprintf("Low reliability score (%.2f)", c.Reliability))
			a.Recommendations = append(a.Recommendations, "Replace with a more authoritative source")
		}
		if breakdown.DomainBoost > 0 {
			a.Strengths = append(a.Strengths, "Trusted domain suffix")
		}
		if breakdown.Penalties > 0 {
			a.Weaknesses = append(a.Weaknesses, "Hosted on a self-publishing platform")
		}

		switch c.SourceType {
		case models.SourceAcademic:
			a.Strengths = append(a.Strengths, "Academic source")
		case models.SourceGovernment:
			a.Strengths = append(a.Strengths, "Government source")
		case models.SourceSocial:
			a.Weaknesses = append(a.Weaknesses, "Social media source")
			a.Recommendations = append(a.Recommendations, "Corroborate with a primary or news source")
		case models.SourceBlog:
			a.Weaknesses = append(a.Weaknesses, "Blog source with variable editorial standards")
			a.Recommendations = append(a.Recommendations, "Verify claims against academic or government sources")
		}

		analyses = append(analyses, a)
	}
	return analyses
}

// AnalyzeDomains reports per domain, sorted by descending citation count
// with ties kept in first-seen order
func (e *Engine) AnalyzeDomains(citations []models.Citation) []models.DomainAnalysis {
	th := e.cfg.Thresholds
	total := len(citations)
	analyses := []models.DomainAnalysis{}
	index := make(map[string]int)

	for i, c := range citations {
		j, ok := index[c.Domain]
		if !ok {
			j = len(analyses)
			index[c.Domain] = j
			analyses = append(analyses, models.DomainAnalysis{
				Domain:          c.Domain,
				SourceTypes:     []models.SourceType{},
				CitationIndexes: []int{},
			})
		}
		d := &analyses[j]
		d.CitationCount++
		d.AverageReliability += c.Reliability
		d.CitationIndexes = append(d.CitationIndexes, i)
		if !slices.Contains(d.SourceTypes, c.SourceType) {
			d.SourceTypes = append(d.SourceTypes, c.SourceType)
		}
	}

	for j := range analyses {
		d := &analyses[j]
		count := float64(d.CitationCount)
		d.AverageReliability /= count
		d.Concentration = count / float64(total)
		d.Diversity = float64(len(d.SourceTypes)) / count
		d.Quality = 0.7*d.AverageReliability + 0.3*d.Diversity
		d.Issues = []string{}
		d.Recommendations = []string{}

		if d.Concentration > th.DomainConcentration {
			d.Issues = append(d.Issues, fmt.Sprintf("High concentration: %.0f%% of all citations", d.Concentration*100))
			d.Recommendations = append(d.Recommendations, "Reduce reliance on this domain by citing alternative sources")
		}
		if d.AverageReliability < th.DomainLowReliability {
			d.Issues = append(d.Issues, fmt.Sprintf("Low average reliability (%.2f)", d.AverageReliability))
			d.Recommendations = append(d.Recommendations, "Replace citations from this domain with more reliable sources")
		}
		if len(d.SourceTypes) == 1 {
			d.Issues = append(d.Issues, fmt.Sprintf("Single source type (%s)", d.SourceTypes[0]))
		}
		if d.CitationCount > th.DomainMaxCitations {
			d.Issues = append(d.Issues, fmt.Sprintf("Cited %d times", d.CitationCount))
			d.Recommendations = append(d.Recommendations, "Consolidate repeated citations to this domain")
		}
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CitationCount > analyses[j].CitationCount
	})
	return analyses
}

// AnalyzeSourceTypes reports per source type present in citations, sorted
// by descending citation count with ties kept in first-seen order
func (e *Engine) AnalyzeSourceTypes(citations []models.Citation) []models.SourceTypeAnalysis {
	th := e.cfg.Thresholds
	total := len(citations)
	analyses := []models.SourceTypeAnalysis{}
	index := make(map[models.SourceType]int)

	for _, c := range citations {
		j, ok := index[c.SourceType]
		if !ok {
			j = len(analyses)
			index[c.SourceType] = j
			analyses = append(analyses, models.SourceTypeAnalysis{
				SourceType: c.SourceType,
				Domains:    []string{},
			})
		}
		t := &analyses[j]
		t.CitationCount++
		t.AverageReliability += c.Reliability
		if !slices.Contains(t.Domains, c.Domain) {
			t.Domains = append(t.Domains, c.Domain)
		}
	}

	for j := range analyses {
		t := &analyses[j]
		count := float64(t.CitationCount)
		t.AverageReliability /= count
		t.Representation = count / float64(total)
		t.DomainDiversity = float64(len(t.Domains)) / count
		t.AverageQuality = 0.8*t.AverageReliability + 0.2*t.DomainDiversity
		t.Issues = []string{}
		t.Recommendations = []string{}

		credible := slices.Contains(credibilityTypes, t.SourceType)

		if t.Representation > th.OverRepresentation {
			t.Issues = append(t.Issues, fmt.Sprintf("Over-represented: %.0f%% of citations", t.Representation*100))
			t.Recommendations = append(t.Recommendations, "Balance with citations from other source types")
		}
		if credible && t.Representation < th.UnderRepresentation {
			t.Issues = append(t.Issues, fmt.Sprintf("Under-represented: %.0f%% of citations", t.Representation*100))
			t.Recommendations = append(t.Recommendations, fmt.Sprintf("Add more %s sources", t.SourceType))
		}
		if credible && t.AverageReliability < th.TypeLowReliability {
			t.Issues = append(t.Issues, fmt.Sprintf("Low average reliability for %s sources (%.2f)", t.SourceType, t.AverageReliability))
			t.Recommendations = append(t.Recommendations, "Prefer peer-reviewed or official publications")
		}
		if t.DomainDiversity < th.TypeLowDomainDiversity {
			t.Issues = append(t.Issues, fmt.Sprintf("Low domain diversity: %d domains across %d citations", len(t.Domains), t.CitationCount))
			t.Recommendations = append(t.Recommendations, fmt.Sprintf("Draw %s citations from more domains", t.SourceType))
		}
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CitationCount > analyses[j].CitationCount
	})
	return analyses
}

// rankDomains maps each domain to its 1-based position by descending count
func rankDomains(counts []models.DomainCount) map[string]int {
	ordered := slices.Clone(counts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Count > ordered[j].Count })

	ranks := make(map[string]int, len(ordered))
	for i, d := range ordered {
		ranks[d.Domain] = i + 1
	}
	return ranks
}

// rankSourceTypes maps each source type to its 1-based position by descending count
func rankSourceTypes(counts []models.SourceTypeCount) map[models.SourceType]int {
	ordered := slices.Clone(counts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Count > ordered[j].Count })

	ranks := make(map[models.SourceType]int, len(ordered))
	for i, t := range ordered {
		ranks[t.SourceType] = i + 1
	}
	return ranks
}
