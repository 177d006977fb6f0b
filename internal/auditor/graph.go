package auditor

import (
	"github.com/zombar/citeaudit/internal/models"
)

// BuildGraph links the document to one source node per citation. Source
// nodes are keyed by citation URL, which is unique within a citation set.
func BuildGraph(documentID, title string, citations []models.Citation) models.Graph {
	g := models.Graph{
		Article: models.ArticleNode{ID: documentID, Label: title},
		Sources: make([]models.SourceNode, 0, len(citations)),
		Edges:   make([]models.Edge, 0, len(citations)),
	}

	for _, c := range citations {
		g.Sources = append(g.Sources, models.SourceNode{
			ID:          c.URL,
			Domain:      c.Domain,
			SourceType:  c.SourceType,
			Reliability: c.Reliability,
		})
		g.Edges = append(g.Edges, models.Edge{
			From:         documentID,
			To:           c.URL,
			Weight:       c.Reliability,
			CitationText: c.DisplayText,
		})
	}

	return g
}

// Stats summarizes a citation graph. Density is that of a directed graph.
func Stats(g models.Graph) models.GraphStats {
	nodes := g.NodeCount()
	stats := models.GraphStats{
		TotalNodes:             nodes,
		SourceNodes:            len(g.Sources),
		TotalEdges:             g.EdgeCount(),
		SourceTypeDistribution: []models.SourceTypeCount{},
	}

	index := make(map[models.SourceType]int)
	var total float64
	for _, s := range g.Sources {
		if i, ok := index[s.SourceType]; ok {
			stats.SourceTypeDistribution[i].Count++
		} else {
			index[s.SourceType] = len(stats.SourceTypeDistribution)
			stats.SourceTypeDistribution = append(stats.SourceTypeDistribution,
				models.SourceTypeCount{SourceType: s.SourceType, Count: 1})
		}
		total += s.Reliability
	}

	if len(g.Sources) > 0 {
		stats.AverageReliability = total / float64(len(g.Sources))
	}
	if nodes > 1 {
		stats.Density = float64(stats.TotalEdges) / float64(nodes*(nodes-1))
	}

	return stats
}

// SourceClusters groups source nodes by "type:registrable domain" in
// first-seen order
func SourceClusters(g models.Graph) []models.SourceCluster {
	clusters := []models.SourceCluster{}
	index := make(map[string]int)

	for _, s := range g.Sources {
		domain := RegistrableDomain(s.Domain)
		key := string(s.SourceType) + ":" + domain
		if i, ok := index[key]; ok {
			clusters[i].SourceIDs = append(clusters[i].SourceIDs, s.ID)
			continue
		}
		index[key] = len(clusters)
		clusters = append(clusters, models.SourceCluster{
			Key:        key,
			SourceType: s.SourceType,
			Domain:     domain,
			SourceIDs:  []string{s.ID},
		})
	}

	return clusters
}
