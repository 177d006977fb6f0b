package auditor

import (
	"fmt"
	"strings"

	"github.com/zombar/citeaudit/internal/models"
)

// DetectRedFlags applies the threshold rules to citations. Rules are
// independent and any number of them may fire.
func (e *Engine) DetectRedFlags(citations []models.Citation) []models.RedFlag {
	th := e.cfg.Thresholds
	bias := e.Bias(citations)
	total := len(citations)
	flags := []models.RedFlag{}

	if total < th.MinCitations {
		flags = append(flags, models.RedFlag{
			Kind:     models.FlagInsufficientCitations,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("Article has only %d citations (minimum recommended: %d)", total, th.MinCitations),
		})
	}

	var low int
	for _, c := range citations {
		if c.Reliability < th.LowReliability {
			low++
		}
	}
	if float64(low) > float64(total)*th.LowReliabilityShare {
		flags = append(flags, models.RedFlag{
			Kind:     models.FlagLowReliabilityDominance,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("%d of %d citations are from low-reliability sources", low, total),
		})
	}

	if bias.SourceConcentration > th.MaxConcentration {
		flags = append(flags, models.RedFlag{
			Kind:     models.FlagHighSourceConcentration,
			Severity: models.SeverityHigh,
			Message: fmt.Sprintf("Source concentration %.0f%% exceeds %.0f%%, top domain: %s",
				bias.SourceConcentration*100, th.MaxConcentration*100, bias.TopDomain),
		})
	}

	if bias.SingleClusterRisk > th.MaxClusterRisk {
		flags = append(flags, models.RedFlag{
			Kind:     models.FlagSingleClusterRisk,
			Severity: models.SeverityHigh,
			Message: fmt.Sprintf("Over %.0f%% of citations from a single source type cluster",
				th.MaxClusterRisk*100),
		})
	}

	if missing := missingSourceTypes(citations, th.RequiredSourceTypes); len(missing) > 0 {
		flags = append(flags, models.RedFlag{
			Kind:     models.FlagMissingViewpointDiversity,
			Severity: models.SeverityMedium,
			Message:  "Missing citations from: " + joinSourceTypes(missing),
		})
	}

	return flags
}

// missingSourceTypes returns the entries of required absent from citations,
// keeping the order of required
func missingSourceTypes(citations []models.Citation, required []models.SourceType) []models.SourceType {
	present := make(map[models.SourceType]bool, len(citations))
	for _, c := range citations {
		present[c.SourceType] = true
	}

	var missing []models.SourceType
	for _, st := range required {
		if !present[st] {
			missing = append(missing, st)
		}
	}
	return missing
}

func joinSourceTypes(types []models.SourceType) string {
	parts := make([]string, len(types))
	for i, st := range types {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}
