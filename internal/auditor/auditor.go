// Package auditor extracts citations from document text and scores their
// reliability, balance and diversity.
//
// Every operation is a pure function of its input. The only state an
// Auditor holds is its configuration and an optional metrics cache.
package auditor

import (
	"github.com/zombar/citeaudit/internal/models"
)

// defaultArticleID names the article node when a document has neither an
// ID nor a source URL
const defaultArticleID = "article"

// Auditor runs the full citation audit of a document
type Auditor struct {
	extractor *Extractor
	engine    *Engine
}

// New creates an auditor. Options are passed to the metrics engine.
func New(cfg Config, opts ...EngineOption) *Auditor {
	return &Auditor{
		extractor: NewExtractor(cfg),
		engine:    NewEngine(cfg, opts...),
	}
}

// Extractor returns the citation extractor
func (a *Auditor) Extractor() *Extractor {
	return a.extractor
}

// Engine returns the metrics engine
func (a *Auditor) Engine() *Engine {
	return a.engine
}

// Audit extracts the citations of doc and produces the full report
func (a *Auditor) Audit(doc models.Document) models.AuditReport {
	id := doc.ID
	if id == "" {
		id = doc.SourceURL
	}
	if id == "" {
		id = defaultArticleID
	}
	return a.AuditCitations(id, doc.Title, a.extractor.Extract(doc.Text))
}

// AuditText audits free text that has not been stored
func (a *Auditor) AuditText(title, text string) models.AuditReport {
	return a.Audit(models.Document{Title: title, Text: text})
}

// AuditCitations produces the report for an already extracted citation set
func (a *Auditor) AuditCitations(documentID, title string, citations []models.Citation) models.AuditReport {
	if citations == nil {
		citations = []models.Citation{}
	}

	graph := BuildGraph(documentID, title, citations)
	metrics := a.engine.Aggregate(citations)

	return models.AuditReport{
		DocumentID:         documentID,
		Title:              title,
		Citations:          citations,
		Graph:              graph,
		GraphStats:         Stats(graph),
		Clusters:           SourceClusters(graph),
		Bias:               metrics.Bias,
		Diversity:          metrics.Diversity,
		Quality:            metrics.Quality,
		RedFlags:           a.engine.DetectRedFlags(citations),
		Recommendations:    a.engine.Recommendations(citations),
		CitationAnalyses:   a.engine.AnalyzeCitations(citations),
		DomainAnalyses:     a.engine.AnalyzeDomains(citations),
		SourceTypeAnalyses: a.engine.AnalyzeSourceTypes(citations),
	}
}
