// Command citeaudit audits the citations of a single document and prints
// a report.
//
//	citeaudit [-title T] [-format json|markdown] [-config rules.yaml] [file]
//
// The document is read from file, or from stdin when no file is given.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zombar/citeaudit/internal/auditor"
	"github.com/zombar/citeaudit/internal/models"
	"github.com/zombar/citeaudit/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fs := flag.NewFlagSet("citeaudit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		title      = fs.String("title", "", "Article title (default: file name)")
		sourceURL  = fs.String("source-url", "", "URL the article was taken from")
		format     = fs.String("format", report.FormatMarkdown, "Output format: json or markdown")
		configPath = fs.String("config", os.Getenv("AUDIT_CONFIG"), "YAML file overriding audit rules and thresholds (env: AUDIT_CONFIG)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "usage: citeaudit [flags] [file]")
		return 2
	}

	cfg, err := auditor.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load audit config", "error", err, "path", *configPath)
		return 1
	}

	in := stdin
	docTitle := *title
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open document", "error", err)
			return 1
		}
		defer f.Close()
		in = f
		if docTitle == "" {
			docTitle = filepath.Base(path)
		}
	}

	text, err := io.ReadAll(in)
	if err != nil {
		logger.Error("failed to read document", "error", err)
		return 1
	}

	rep := auditor.New(cfg).Audit(models.Document{
		Title:     docTitle,
		SourceURL: *sourceURL,
		Text:      string(text),
	})

	if err := report.Write(stdout, *format, rep); err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}
	return 0
}
