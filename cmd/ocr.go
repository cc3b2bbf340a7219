package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"investnotes/internal/ocr"
	"investnotes/internal/store"
	"investnotes/internal/utils"
	"investnotes/models"
)

// Files written to the OCR output directory.
const (
	rawDocumentFile        = "notes_raw.md"
	comparisonDocumentFile = "notes_comparison.md"
	ocrResultsFile         = "ocr_results.json"
	structuredReportFile   = "notes_structured.md"
	structuredNotesFile    = "notes_structured.json"
	rulesFile              = "extracted_rules.json"

	retryWait = 2 * time.Second
)

type ocrOptions struct {
	images   string
	provider string
	noStore  bool
}

func addOCRFlags(cmd *cobra.Command, opts *ocrOptions) {
	cmd.Flags().StringVar(&opts.images, "images", "notes_images", "directory of notebook photos")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "dashscope, gemini or all (overrides ocr.provider)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "neither reuse nor save pages in the SQLite store")
}

func newOCRCmd(a *app) *cobra.Command {
	opts := &ocrOptions{}
	cmd := &cobra.Command{
		Use:   "ocr",
		Short: "Transcribe notebook photos with the configured vision models",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runOCR(cmd.Context(), opts)
			return err
		},
	}
	addOCRFlags(cmd, opts)
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	opts := &ocrOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Transcribe new notebook photos as they are added",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.runOCR(ctx, opts); err != nil && ctx.Err() == nil {
				a.logger.Error("Initial OCR run failed: %v", err)
			}
			w := ocr.NewWatcher(opts.images, a.logger, func(ctx context.Context) error {
				_, err := a.runOCR(ctx, opts)
				return err
			})
			return w.Run(ctx)
		},
	}
	addOCRFlags(cmd, opts)
	return cmd
}

// recognizers builds the OCR methods of the configured provider, each
// wrapped with retries.
//
// Parameters:
//   - ctx: Context for creating API clients
//   - cfg: OCR configuration with the provider and keys
//
// Returns:
//   - []ocr.Recognizer: The methods in the order they run on each page
//   - error: Any error creating a client
func recognizers(ctx context.Context, cfg utils.OCRConfig) ([]ocr.Recognizer, error) {
	wrap := func(r ocr.Recognizer) ocr.Recognizer {
		return ocr.WithRetry(r, cfg.Retries, retryWait)
	}

	var methods []ocr.Recognizer
	useDash := cfg.Provider == utils.ProviderDash || cfg.Provider == utils.ProviderAll && cfg.APIKey != ""
	useGemini := cfg.Provider == utils.ProviderGemini || cfg.Provider == utils.ProviderAll && cfg.GeminiAPIKey != ""

	if useDash {
		methods = append(methods,
			wrap(ocr.NewVLMax(cfg)),
			wrap(ocr.NewVLOCR(cfg)),
			wrap(ocr.NewOptimizedPrompt(cfg)),
		)
	}
	if useGemini {
		g, err := ocr.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		methods = append(methods, wrap(g))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no OCR methods for provider %q", cfg.Provider)
	}
	return methods, nil
}

// runOCR transcribes every photo in opts.images and writes the raw and
// comparison documents.
//
// Parameters:
//   - ctx: Context; canceling it stops after the current call
//   - opts: Command line options
//
// Returns:
//   - []models.PageResult: The pages transcribed or reused from the store
//   - error: Any error that stopped the run
func (a *app) runOCR(ctx context.Context, opts *ocrOptions) ([]models.PageResult, error) {
	config := *a.config
	if opts.provider != "" {
		config.OCR.Provider = opts.provider
	}
	if err := config.ValidateOCR(); err != nil {
		return nil, err
	}
	cfg := config.OCR

	methods, err := recognizers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tracker := utils.NewPerformanceTracker()
	procOpts := []ocr.Option{
		ocr.WithDelay(seconds(float64(cfg.Delay))),
		ocr.WithCheckpoints(cfg.OutputDir, cfg.CheckpointInterval),
		ocr.WithTracker(tracker),
	}
	if !opts.noStore {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		procOpts = append(procOpts, ocr.WithStore(st, store.NewRunID()))
	}

	p := ocr.NewProcessor(a.logger, methods, procOpts...)
	pages, runErr := p.ProcessAll(ctx, opts.images)

	if len(pages) > 0 {
		if err := writeOCRDocuments(cfg.OutputDir, pages); err != nil {
			return pages, err
		}
		a.logger.Info("OCR summary:\n%s", ocr.ComputeStats(pages))
	}
	a.logger.Info("%s", tracker.GenerateAggregateReport())
	return pages, runErr
}

// writeOCRDocuments saves the raw document, the method comparison and the
// page results as JSON.
func writeOCRDocuments(dir string, pages []models.PageResult) error {
	now := time.Now()
	var raw, comparison bytes.Buffer
	if err := ocr.WriteRawDocument(&raw, pages, now); err != nil {
		return err
	}
	if err := ocr.WriteComparisonDocument(&comparison, pages, now); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, rawDocumentFile), raw.Bytes(), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, comparisonDocumentFile), comparison.Bytes(), 0644); err != nil {
		return err
	}
	return utils.WriteJSON(filepath.Join(dir, ocrResultsFile), pages)
}
