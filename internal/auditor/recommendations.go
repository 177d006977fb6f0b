package auditor

import (
	"fmt"

	"github.com/zombar/citeaudit/internal/models"
)

// credibilityTypes are the source types whose absence is called out in the
// summary recommendations
var credibilityTypes = []models.SourceType{models.SourceAcademic, models.SourceGovernment}

// Recommendations returns document-level advice derived from the aggregate metrics
func (e *Engine) Recommendations(citations []models.Citation) []string {
	th := e.cfg.Thresholds
	m := e.Aggregate(citations)
	recs := []string{}

	if m.Quality.OverallQuality < th.QualityFloor {
		recs = append(recs, "Overall citation quality is below recommended standards. Consider adding more diverse, high-reliability sources.")
	}

	if m.Bias.SourceConcentration > th.ConcentrationAdvice {
		recs = append(recs, fmt.Sprintf("High concentration from %s. Diversify sources across multiple domains.", m.Bias.TopDomain))
	}

	if m.Diversity.SourceTypeDiversity < th.TypeDiversityFloor {
		recs = append(recs, "Limited source type diversity. Add citations from academic, government, and NGO sources for balance.")
	}

	if m.Quality.SourceReliability < th.ReliabilityFloor {
		recs = append(recs, "Average source reliability is low. Replace low-reliability sources with more authoritative ones.")
	}

	if missing := missingSourceTypes(citations, credibilityTypes); len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Add citations from %s sources to improve credibility.", joinSourceTypes(missing)))
	}

	return recs
}
