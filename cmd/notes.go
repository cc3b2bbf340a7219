package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"investnotes/internal/export"
	"investnotes/internal/notes"
	"investnotes/internal/utils"
	"investnotes/models"
)

// rawDocument is the OCR raw document unless --input overrides it.
func (a *app) rawDocument(input string) string {
	if input != "" {
		return input
	}
	return filepath.Join(a.config.OCR.OutputDir, rawDocumentFile)
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify the transcribed notes into strategies, risks and quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := notes.ParseFile(a.rawDocument(input))
			if err != nil {
				return err
			}
			a.logger.Info("Parsed %d pages", len(pages))

			analyzed := notes.NewAnalyzer().AnalyzeAll(pages)

			var report bytes.Buffer
			if err := notes.WriteReport(&report, analyzed, time.Now()); err != nil {
				return err
			}
			dir := a.config.OCR.OutputDir
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(filepath.Join(dir, structuredReportFile), report.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if err := utils.WriteJSON(filepath.Join(dir, structuredNotesFile), analyzed); err != nil {
				return err
			}

			t := notes.Summarize(analyzed)
			a.logger.Info("Extracted %d quotes, %d strategies, %d views, %d timing notes, %d risk warnings from %d pages",
				t.Quotes, t.Strategies, t.Views, t.Timing, t.Risks, t.Pages)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "raw OCR document (default <ocr.outputDir>/"+rawDocumentFile+")")
	return cmd
}

func newRulesCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Extract selection, timing, position and risk rules from the notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := notes.ParseFile(a.rawDocument(input))
			if err != nil {
				return err
			}
			texts := make([]string, len(pages))
			for i, p := range pages {
				texts[i] = p.Text
			}

			rules := notes.NewRuleExtractor().Extract(strings.Join(texts, "\n"))
			path := filepath.Join(a.config.OCR.OutputDir, rulesFile)
			if err := utils.WriteJSON(path, rules); err != nil {
				return err
			}
			a.logger.Info("Extracted %d selection, %d timing, %d position, %d risk rules and %d insights to %s",
				len(rules.SelectionRules), len(rules.TimingRules), len(rules.PositionRules),
				len(rules.RiskRules), len(rules.Insights), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "raw OCR document (default <ocr.outputDir>/"+rawDocumentFile+")")
	return cmd
}

func newQuotesCmd(a *app) *cobra.Command {
	var fromReport string
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Write laoliu_quotes.json for the mini-program",
		RunE: func(cmd *cobra.Command, args []string) error {
			quotes := notes.Curated()
			if fromReport != "" {
				data, err := os.ReadFile(fromReport)
				if err != nil {
					return err
				}
				extracted := notes.NewQuoteExtractor().Extract(string(data))
				quotes = mergeQuotes(quotes, extracted)
				a.logger.Info("Found %d quotes in %s", len(extracted), fromReport)
			}

			book := notes.BuildBook(quotes, time.Now())
			if err := export.WriteQuotes(book, a.config.Export.OutputDirs...); err != nil {
				return err
			}
			a.logger.Info("Wrote %d quotes to %s", book.TotalQuotes, strings.Join(a.config.Export.OutputDirs, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromReport, "from-report", "", "also take quotes from a structured report")
	return cmd
}

// mergeQuotes appends the extracted quotes whose text is not already among
// the curated ones.
func mergeQuotes(curated, extracted []models.Quote) []models.Quote {
	seen := make(map[string]bool, len(curated))
	for _, q := range curated {
		seen[q.Content] = true
	}
	out := append([]models.Quote{}, curated...)
	for _, q := range extracted {
		if seen[q.Content] {
			continue
		}
		seen[q.Content] = true
		out = append(out, q)
	}
	return out
}
