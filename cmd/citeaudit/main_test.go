package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zombar/citeaudit/internal/models"
)

const article = `Rising seas [NOAA](https://www.noaa.gov/sea-level) and
https://www.bbc.co.uk/news/science-environment are both cited.`

func TestRunStdinJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "json", "-title", "Seas"}, strings.NewReader(article), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	var rep models.AuditReport
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("output is not a JSON report: %v", err)
	}
	if rep.Title != "Seas" || len(rep.Citations) != 2 {
		t.Errorf("title=%q citations=%d", rep.Title, len(rep.Citations))
	}
	if rep.DocumentID != "article" {
		t.Errorf("document id = %q, want article", rep.DocumentID)
	}
}

func TestRunFileMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seas.md")
	if err := os.WriteFile(path, []byte(article), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-source-url", "https://example.org/seas", path}, nil, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "**Article:** seas.md") {
		t.Errorf("title should default to the file name:\n%s", out)
	}
	if !strings.Contains(out, "**Document:** https://example.org/seas") {
		t.Errorf("document id should be the source URL:\n%s", out)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"bad flag", []string{"-nope"}, 2},
		{"too many args", []string{"a", "b"}, 2},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.md")}, 1},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, 1},
		{"bad format", []string{"-format", "pdf"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, strings.NewReader(article), &stdout, &stderr); code != tt.want {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.want, stderr.String())
			}
		})
	}
}
