package auditor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/citeaudit/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
base_reliability:
  social: 0.2
distrust_patterns: [blogspot, wordpress, tumblr, medium]
thresholds:
  min_citations: 5
  required_source_types: [academic, news]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, cfg.BaseReliability[models.SourceSocial], 1e-9)
	assert.InDelta(t, 0.9, cfg.BaseReliability[models.SourceAcademic], 1e-9, "untouched entries keep defaults")
	assert.Equal(t, []string{"blogspot", "wordpress", "tumblr", "medium"}, cfg.DistrustPatterns)
	assert.Equal(t, 5, cfg.Thresholds.MinCitations)
	assert.Equal(t, []models.SourceType{models.SourceAcademic, models.SourceNews}, cfg.Thresholds.RequiredSourceTypes)
	assert.InDelta(t, 0.7, cfg.Thresholds.MaxConcentration, 1e-9)
	assert.Len(t, cfg.Classification, 6)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"reliability out of range", "base_reliability:\n  news: 1.5\n"},
		{"unknown rule type", "classification:\n  - source_type: podcast\n    patterns: [pod]\n"},
		{"rule without patterns", "classification:\n  - source_type: news\n"},
		{"unknown required type", "thresholds:\n  required_source_types: [tabloid]\n"},
		{"zero citation target", "thresholds:\n  citation_count_target: 0\n"},
		{"ratio out of range", "thresholds:\n  max_concentration: 1.2\n"},
		{"malformed yaml", "thresholds: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigChangesScoring(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseReliability[models.SourceNews] = 0.6
	cfg.Thresholds.MinCitations = 1

	a := New(cfg)
	report := a.AuditText("t", "[N](https://news.example.com/a)")

	require.Len(t, report.Citations, 1)
	assert.InDelta(t, 0.6, report.Citations[0].Reliability, 1e-9)
	for _, f := range report.RedFlags {
		assert.NotEqual(t, models.FlagInsufficientCitations, f.Kind)
	}
}
