// Package report renders audit reports for people and machines
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zombar/citeaudit/internal/models"
)

// Supported output formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// topDomainLimit caps the domain table of the markdown report
const topDomainLimit = 5

// Write renders r in the named format
func Write(w io.Writer, format string, r models.AuditReport) error {
	switch format {
	case FormatJSON, "":
		return JSON(w, r)
	case FormatMarkdown, "md":
		return Markdown(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// JSON writes r as indented JSON
func JSON(w io.Writer, r models.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Markdown writes a human-readable summary of r
func Markdown(w io.Writer, r models.AuditReport) error {
	b := bufio.NewWriter(w)

	title := r.Title
	if title == "" {
		title = "Untitled"
	}

	fmt.Fprintln(b, "# Citation Audit Report")
	fmt.Fprintln(b)
	fmt.Fprintf(b, "**Article:** %s\n", title)
	fmt.Fprintf(b, "**Document:** %s\n", r.DocumentID)
	fmt.Fprintln(b)
	fmt.Fprintln(b, "## Summary")
	fmt.Fprintln(b)
	fmt.Fprintln(b, summary(r))
	fmt.Fprintln(b)

	fmt.Fprintln(b, "## Quality Scores")
	fmt.Fprintln(b)
	fmt.Fprintf(b, "- **Overall Quality:** %s\n", percent(r.Quality.OverallQuality))
	fmt.Fprintf(b, "- **Source Reliability:** %s\n", percent(r.Quality.SourceReliability))
	fmt.Fprintf(b, "- **Diversity Score:** %s\n", percent(r.Quality.DiversityScore))
	fmt.Fprintf(b, "- **Citation Count Score:** %s\n", percent(r.Quality.CitationCountScore))
	fmt.Fprintln(b)

	topDomain := r.Bias.TopDomain
	if topDomain == "" {
		topDomain = "N/A"
	}
	fmt.Fprintln(b, "## Bias & Diversity")
	fmt.Fprintln(b)
	fmt.Fprintf(b, "- **Source Concentration:** %s\n", percent(r.Bias.SourceConcentration))
	fmt.Fprintf(b, "- **Single Cluster Risk:** %s\n", percent(r.Bias.SingleClusterRisk))
	fmt.Fprintf(b, "- **Top Domain:** %s\n", topDomain)
	fmt.Fprintf(b, "- **Domain Diversity:** %s\n", percent(r.Diversity.DomainDiversity))
	fmt.Fprintf(b, "- **Source Type Diversity:** %s\n", percent(r.Diversity.SourceTypeDiversity))
	fmt.Fprintln(b)

	if len(r.RedFlags) > 0 {
		fmt.Fprintln(b, "## Red Flags")
		fmt.Fprintln(b)
		for _, f := range r.RedFlags {
			fmt.Fprintf(b, "- **[%s]** %s\n", strings.ToUpper(string(f.Severity)), f.Message)
		}
		fmt.Fprintln(b)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(b, "## Recommendations")
		fmt.Fprintln(b)
		for i, rec := range r.Recommendations {
			fmt.Fprintf(b, "%d. %s\n", i+1, rec)
		}
		fmt.Fprintln(b)
	}

	if len(r.DomainAnalyses) > 0 {
		fmt.Fprintln(b, "## Top Domains")
		fmt.Fprintln(b)
		rows := [][]string{{"Domain", "Citations", "Share", "Avg Reliability"}}
		for i, d := range r.DomainAnalyses {
			if i == topDomainLimit {
				break
			}
			rows = append(rows, []string{
				d.Domain,
				fmt.Sprintf("%d", d.CitationCount),
				percent(d.Concentration),
				fmt.Sprintf("%.2f", d.AverageReliability),
			})
		}
		writeTable(b, rows)
		fmt.Fprintln(b)
	}

	if len(r.Citations) > 0 {
		fmt.Fprintln(b, "## Citations")
		fmt.Fprintln(b)
		rows := [][]string{{"#", "Source", "Domain", "Type", "Reliability"}}
		for i, c := range r.Citations {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("[%s](%s)", escapeCell(c.DisplayText), c.URL),
				c.Domain,
				string(c.SourceType),
				fmt.Sprintf("%.2f", c.Reliability),
			})
		}
		writeTable(b, rows)
	}

	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func summary(r models.AuditReport) string {
	n := len(r.Citations)
	if n == 0 {
		return "No citations were found in this article."
	}

	var high int
	for _, f := range r.RedFlags {
		if f.Severity == models.SeverityHigh {
			high++
		}
	}

	s := fmt.Sprintf("%d %s from %d %s, overall quality %s.",
		n, plural(n, "citation", "citations"),
		r.Diversity.UniqueDomains, plural(r.Diversity.UniqueDomains, "domain", "domains"),
		percent(r.Quality.OverallQuality))
	if len(r.RedFlags) > 0 {
		s += fmt.Sprintf(" %d red %s raised (%d high severity).",
			len(r.RedFlags), plural(len(r.RedFlags), "flag", "flags"), high)
	}
	return s
}

// writeTable writes rows as a markdown table padded to display width, the
// first row being the header
func writeTable(w io.Writer, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell), 3)
		}
	}

	line := func(cells []string) {
		var sb strings.Builder
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString(" |")
		}
		fmt.Fprintln(w, sb.String())
	}

	line(rows[0])
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	line(sep)
	for _, row := range rows[1:] {
		line(row)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "[", `\[`)
	return strings.ReplaceAll(s, "]", `\]`)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
