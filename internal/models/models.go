package models

import "time"

// SourceType is the closed category of a cited source
type SourceType string

const (
	SourceAcademic   SourceType = "academic"
	SourceGovernment SourceType = "government"
	SourceNGO        SourceType = "ngo"
	SourceNews       SourceType = "news"
	SourceBlog       SourceType = "blog"
	SourceSocial     SourceType = "social"
	SourceOther      SourceType = "other"
)

// SourceTypes lists every source type in canonical order
var SourceTypes = []SourceType{
	SourceAcademic,
	SourceGovernment,
	SourceNGO,
	SourceNews,
	SourceBlog,
	SourceSocial,
	SourceOther,
}

// Valid reports whether t is one of the known source types
func (t SourceType) Valid() bool {
	for _, known := range SourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Citation is a single extracted reference
type Citation struct {
	URL         string     `json:"url"`
	DisplayText string     `json:"display_text"`
	Domain      string     `json:"domain"`
	SourceType  SourceType `json:"source_type"`
	Reliability float64    `json:"reliability"` // 0.0 to 1.0
}

// Document is a submitted raw document. Only the text is stored, never its audit.
type Document struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	SourceURL string     `json:"source_url,omitempty"`
	Text      string     `json:"text"`
	Status    string     `json:"status"` // queued, audited, failed
	AuditedAt *time.Time `json:"audited_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Document statuses
const (
	StatusQueued  = "queued"
	StatusAudited = "audited"
	StatusFailed  = "failed"
)

// ArticleNode is the document node of a citation graph
type ArticleNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SourceNode is one cited source in a citation graph
type SourceNode struct {
	ID          string     `json:"id"`
	Domain      string     `json:"domain"`
	SourceType  SourceType `json:"source_type"`
	Reliability float64    `json:"reliability"`
}

// Edge connects the article node to a source node
type Edge struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Weight       float64 `json:"weight"`
	CitationText string  `json:"citation_text"`
}

// Graph is the citation graph of a single document
type Graph struct {
	Article ArticleNode  `json:"article"`
	Sources []SourceNode `json:"sources"`
	Edges   []Edge       `json:"edges"`
}

// NodeCount returns the number of nodes including the article node
func (g Graph) NodeCount() int {
	return len(g.Sources) + 1
}

// EdgeCount returns the number of edges
func (g Graph) EdgeCount() int {
	return len(g.Edges)
}

// GraphStats summarizes a citation graph
type GraphStats struct {
	TotalNodes             int               `json:"total_nodes"`
	SourceNodes            int               `json:"source_nodes"`
	TotalEdges             int               `json:"total_edges"`
	SourceTypeDistribution []SourceTypeCount `json:"source_type_distribution"`
	AverageReliability     float64           `json:"average_reliability"`
	Density                float64           `json:"density"`
}

// SourceCluster groups source nodes sharing a source type and registrable domain
type SourceCluster struct {
	Key        string     `json:"key"` // "type:domain"
	SourceType SourceType `json:"source_type"`
	Domain     string     `json:"domain"`
	SourceIDs  []string   `json:"source_ids"`
}

// DomainCount is a domain and its citation count
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// SourceTypeCount is a source type and its citation count
type SourceTypeCount struct {
	SourceType SourceType `json:"source_type"`
	Count      int        `json:"count"`
}

// BiasMetrics measures how much citations cluster on one domain or source type
type BiasMetrics struct {
	SourceConcentration    float64           `json:"source_concentration"`
	SingleClusterRisk      float64           `json:"single_cluster_risk"`
	TopDomainPercentage    float64           `json:"top_domain_percentage"`
	TopDomain              string            `json:"top_domain"`
	DomainDistribution     []DomainCount     `json:"domain_distribution"`      // first-seen order
	SourceTypeDistribution []SourceTypeCount `json:"source_type_distribution"` // first-seen order
}

// DiversityMetrics measures the breadth of a citation set
type DiversityMetrics struct {
	DomainDiversity      float64 `json:"domain_diversity"`
	SourceTypeDiversity  float64 `json:"source_type_diversity"`
	ReliabilityDiversity float64 `json:"reliability_diversity"`
	OverallDiversity     float64 `json:"overall_diversity"`
	UniqueDomains        int     `json:"unique_domains"`
	UniqueSourceTypes    int     `json:"unique_source_types"`
}

// QualityScores is the composite quality of a citation set
type QualityScores struct {
	SourceReliability  float64 `json:"source_reliability"`
	DiversityScore     float64 `json:"diversity_score"`
	CitationCountScore float64 `json:"citation_count_score"`
	OverallQuality     float64 `json:"overall_quality"`
}

// AggregateMetrics bundles the three aggregate results computed over one citation set
type AggregateMetrics struct {
	Bias      BiasMetrics      `json:"bias"`
	Diversity DiversityMetrics `json:"diversity"`
	Quality   QualityScores    `json:"quality"`
}

// Clone returns a deep copy so cached values are never shared with callers
func (m AggregateMetrics) Clone() AggregateMetrics {
	out := m
	if m.Bias.DomainDistribution != nil {
		out.Bias.DomainDistribution = make([]DomainCount, len(m.Bias.DomainDistribution))
		copy(out.Bias.DomainDistribution, m.Bias.DomainDistribution)
	}
	if m.Bias.SourceTypeDistribution != nil {
		out.Bias.SourceTypeDistribution = make([]SourceTypeCount, len(m.Bias.SourceTypeDistribution))
		copy(out.Bias.SourceTypeDistribution, m.Bias.SourceTypeDistribution)
	}
	return out
}

// Severity of a red flag
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Red flag kinds
const (
	FlagInsufficientCitations     = "insufficient_citations"
	FlagLowReliabilityDominance   = "low_reliability_dominance"
	FlagHighSourceConcentration   = "high_source_concentration"
	FlagSingleClusterRisk         = "single_cluster_risk"
	FlagMissingViewpointDiversity = "missing_viewpoint_diversity"
)

// RedFlag is a rule-triggered warning about citation quality or balance
type RedFlag struct {
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ReliabilityBreakdown explains how a reliability score was reached
type ReliabilityBreakdown struct {
	BaseScore   float64 `json:"base_score"`
	DomainBoost float64 `json:"domain_boost"`
	Penalties   float64 `json:"penalties"`
	FinalScore  float64 `json:"final_score"`
}

// CitationAnalysis is the detailed report for one citation
type CitationAnalysis struct {
	Index           int                  `json:"index"`
	URL             string               `json:"url"`
	DisplayText     string               `json:"display_text"`
	Domain          string               `json:"domain"`
	SourceType      SourceType           `json:"source_type"`
	Reliability     ReliabilityBreakdown `json:"reliability"`
	DomainRank      int                  `json:"domain_rank"`
	SourceTypeRank  int                  `json:"source_type_rank"`
	Strengths       []string             `json:"strengths"`
	Weaknesses      []string             `json:"weaknesses"`
	Recommendations []string             `json:"recommendations"`
}

// DomainAnalysis is the detailed report for one domain
type DomainAnalysis struct {
	Domain             string       `json:"domain"`
	CitationCount      int          `json:"citation_count"`
	Concentration      float64      `json:"concentration"`
	AverageReliability float64      `json:"average_reliability"`
	SourceTypes        []SourceType `json:"source_types"`
	Diversity          float64      `json:"diversity"`
	Quality            float64      `json:"quality"`
	CitationIndexes    []int        `json:"citation_indexes"`
	Issues             []string     `json:"issues"`
	Recommendations    []string     `json:"recommendations"`
}

// SourceTypeAnalysis is the detailed report for one source type
type SourceTypeAnalysis struct {
	SourceType         SourceType `json:"source_type"`
	CitationCount      int        `json:"citation_count"`
	Representation     float64    `json:"representation"`
	AverageReliability float64    `json:"average_reliability"`
	Domains            []string   `json:"domains"`
	DomainDiversity    float64    `json:"domain_diversity"`
	AverageQuality     float64    `json:"average_quality"`
	Issues             []string   `json:"issues"`
	Recommendations    []string   `json:"recommendations"`
}

// AuditReport is the full result of auditing one document
type AuditReport struct {
	DocumentID         string               `json:"document_id"`
	Title              string               `json:"title"`
	Citations          []Citation           `json:"citations"`
	Graph              Graph                `json:"graph"`
	GraphStats         GraphStats           `json:"graph_stats"`
	Clusters           []SourceCluster      `json:"clusters"`
	Bias               BiasMetrics          `json:"bias_metrics"`
	Diversity          DiversityMetrics     `json:"diversity_metrics"`
	Quality            QualityScores        `json:"quality_scores"`
	RedFlags           []RedFlag            `json:"red_flags"`
	Recommendations    []string             `json:"recommendations"`
	CitationAnalyses   []CitationAnalysis   `json:"citation_analyses"`
	DomainAnalyses     []DomainAnalysis     `json:"domain_analyses"`
	SourceTypeAnalyses []SourceTypeAnalysis `json:"source_type_analyses"`
}
