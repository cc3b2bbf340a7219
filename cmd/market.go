package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"investnotes/internal/export"
	"investnotes/internal/market"
	"investnotes/internal/scraper"
	"investnotes/internal/utils"
	"investnotes/models"
)

// newFetcher wires the HTTP quote sources from the market configuration.
// The Eastmoney list and the industry lookup are only used for live runs.
func (a *app) newFetcher(tracker *utils.PerformanceTracker, live bool, extra ...market.QuoteSource) *market.Fetcher {
	cfg := a.config.Market
	timeout := time.Duration(cfg.Timeout) * time.Second

	sources := append([]market.QuoteSource{market.NewSinaClient(cfg.SinaURL, timeout)}, extra...)
	f := market.NewFetcher(a.logger, tracker, sources...)
	f.Delay = seconds(cfg.Delay)
	if live {
		f.List = market.NewEastmoneyClient(cfg.ListURL, timeout)
		f.Industry = market.NewIndustryLookup(cfg.ProfileURL, timeout)
	}
	return f
}

// publish builds every mini-program file from the two lists and writes them
// to the configured output directories, plus the spreadsheet when set.
func (a *app) publish(stocksA, stocksHK []models.Stock, source string) error {
	cfg := a.config.Export
	b := export.NewBuilder(cfg.TopAnalysis, cfg.TopPicks)
	b.Source = source

	bundle := b.Build(stocksA, stocksHK)
	if err := bundle.Write(cfg.OutputDirs...); err != nil {
		return err
	}
	a.logger.Info("Wrote %d A-share and %d HK stocks to %s (market phase %s)",
		len(stocksA), len(stocksHK), strings.Join(cfg.OutputDirs, ", "), bundle.Timing.MarketPhase)

	if cfg.XLSXPath != "" {
		all := append(append([]models.Stock{}, stocksA...), stocksHK...)
		if err := export.WriteXLSX(cfg.XLSXPath, all, cfg.TopPicks); err != nil {
			return fmt.Errorf("failed to write spreadsheet: %w", err)
		}
		a.logger.Info("Wrote top %d picks to %s", cfg.TopPicks, cfg.XLSXPath)
	}
	return nil
}

// refresh regenerates the whole data set, from the live list when live is
// set and from the generator otherwise.
//
// Parameters:
//   - ctx: Context for the live requests
//   - live: Whether to try the Eastmoney list first
//
// Returns:
//   - error: Any error writing the files
func (a *app) refresh(ctx context.Context, live bool) error {
	tracker := utils.NewPerformanceTracker()
	f := a.newFetcher(tracker, live)

	cfg := a.config.Market
	stocksA, sourceA := f.MarketStocks(ctx, models.MarketA, cfg.ALimit, live)
	if err := ctx.Err(); err != nil {
		return err
	}
	stocksHK, sourceHK := f.MarketStocks(ctx, models.MarketHK, cfg.HKLimit, live)
	if err := ctx.Err(); err != nil {
		return err
	}

	source := sourceA
	if sourceA != sourceHK {
		source = sourceA + "+" + sourceHK
	}
	if err := a.publish(stocksA, stocksHK, source); err != nil {
		return err
	}
	a.logger.Debug("%s", tracker.GenerateAggregateReport())
	return nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the stock data files for the mini-program",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.refresh(cmd.Context(), live || a.config.Market.Live)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "read the market lists from Eastmoney instead of generating them")
	return cmd
}

// watchlist resolves the codes to price: the flag, then market.codes, then
// market.codesFile.
func (a *app) watchlist(flagCodes []string) ([]string, error) {
	if len(flagCodes) > 0 {
		return flagCodes, nil
	}
	if len(a.config.Market.Codes) > 0 {
		return a.config.Market.Codes, nil
	}
	if a.config.Market.CodesFile != "" {
		codes, err := export.ReadCodes(a.config.Market.CodesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read codes: %w", err)
		}
		return codes, nil
	}
	return nil, fmt.Errorf("no codes: pass --codes or set market.codes or market.codesFile")
}

func newSyncCmd(a *app) *cobra.Command {
	var codes []string
	var browser bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Price a watchlist from live quotes and write the data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list, err := a.watchlist(codes)
			if err != nil {
				return err
			}

			var extra []market.QuoteSource
			if browser || a.config.Scraper.Enabled {
				s, err := scraper.New(a.logger, a.config)
				if err != nil {
					return fmt.Errorf("failed to start browser: %w", err)
				}
				defer func() {
					a.logger.Info("Browser quote timings:\n%s", s.GetPerformanceTracker().GenerateReport())
					s.Close()
				}()
				extra = append(extra, s)
			}

			tracker := utils.NewPerformanceTracker()
			f := a.newFetcher(tracker, true, extra...)

			byMarket := map[string][]string{}
			for _, code := range list {
				code = strings.TrimSpace(code)
				if code == "" {
					continue
				}
				mkt := market.MarketOf(code)
				byMarket[mkt] = append(byMarket[mkt], code)
			}
			a.logger.Info("Pricing %d A-share and %d HK codes", len(byMarket[models.MarketA]), len(byMarket[models.MarketHK]))

			stocksA, err := f.Quotes(ctx, byMarket[models.MarketA], models.MarketA)
			if err != nil {
				return err
			}
			stocksHK, err := f.Quotes(ctx, byMarket[models.MarketHK], models.MarketHK)
			if err != nil {
				return err
			}

			if err := a.publish(stocksA, stocksHK, "live"); err != nil {
				return err
			}
			a.logger.Info("%s", tracker.GenerateAggregateReport())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&codes, "codes", nil, "comma separated stock codes")
	cmd.Flags().BoolVar(&browser, "browser", false, "fall back to a headless browser when the quote API fails")
	return cmd
}

func newExportXLSXCmd(a *app) *cobra.Command {
	var out string
	var top int
	cmd := &cobra.Command{
		Use:   "export-xlsx",
		Short: "Write the top scored stocks of the current data files to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			stocksA, stocksHK, err := export.LoadStocks(a.config.Server.DataDir)
			if err != nil {
				return err
			}
			if out == "" {
				out = a.config.Export.XLSXPath
			}
			if out == "" {
				return fmt.Errorf("no spreadsheet path: pass --out or set export.xlsxPath")
			}
			if top <= 0 {
				top = a.config.Export.TopPicks
			}
			all := append(stocksA.Stocks, stocksHK.Stocks...)
			if err := export.WriteXLSX(out, all, top); err != nil {
				return err
			}
			a.logger.Info("Wrote top %d of %d stocks to %s", top, len(all), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "spreadsheet path (default export.xlsxPath)")
	cmd.Flags().IntVar(&top, "top", 0, "number of stocks (default export.topPicks)")
	return cmd
}
