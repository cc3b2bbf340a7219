package market

import (
	"context"
	"time"

	"investnotes/internal/utils"
	"investnotes/models"
)

// Fetcher prices stocks from live sources in order and falls back to the
// generator when every source fails.
type Fetcher struct {
	Sources  []QuoteSource
	List     *EastmoneyClient
	Industry *IndustryLookup
	Gen      *Generator
	Delay    time.Duration

	logger  *utils.Logger
	tracker *utils.PerformanceTracker
}

func NewFetcher(logger *utils.Logger, tracker *utils.PerformanceTracker, sources ...QuoteSource) *Fetcher {
	if tracker == nil {
		tracker = utils.NewPerformanceTracker()
	}
	return &Fetcher{
		Sources: sources,
		Gen:     NewGenerator(),
		logger:  logger,
		tracker: tracker,
	}
}

// Quote returns a scored record for code. It never fails: the generated
// record is the last resort and is marked with data source "mock".
func (f *Fetcher) Quote(ctx context.Context, code, market string) models.Stock {
	stock := f.Gen.Stock(code, market)
	stock.DataSource = "mock"

	for _, src := range f.Sources {
		var q *Quote
		err := f.tracker.Track(src.Name(), func() error {
			var err error
			q, err = src.Quote(ctx, code, market)
			return err
		})
		if err != nil {
			f.logger.Warn("%s quote for %s failed: %v", src.Name(), code, err)
			continue
		}
		f.merge(ctx, &stock, q)
		return stock
	}

	f.logger.Debug("using generated data for %s", code)
	return stock
}

func (f *Fetcher) merge(ctx context.Context, s *models.Stock, q *Quote) {
	if q.Name != "" {
		s.Name = q.Name
	}
	s.CurrentPrice = round(q.Price, 2)
	s.ChangePercent = q.ChangePercent
	s.Volume = q.Volume
	if q.PrevClose > 0 && q.High > 0 {
		s.Amplitude = round((q.High-q.Low)/q.PrevClose*100, 2)
	}
	s.DataSource = q.Source

	if f.Industry != nil {
		industry, err := f.Industry.Industry(ctx, s.Code)
		if err != nil {
			f.logger.Debug("industry lookup for %s failed: %v", s.Code, err)
		} else if industry != UnknownIndustry {
			s.Industry = industry
		}
	}
	Score(s)
}

// Quotes prices codes one after another, pausing Delay between requests.
func (f *Fetcher) Quotes(ctx context.Context, codes []string, market string) ([]models.Stock, error) {
	out := make([]models.Stock, 0, len(codes))
	for i, code := range codes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		f.logger.Debug("Processing code %d/%d: %s", i+1, len(codes), code)
		out = append(out, f.Quote(ctx, code, market))

		if i < len(codes)-1 && f.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(f.Delay):
			}
		}
	}
	return out, nil
}

// MarketStocks returns up to limit records for market. With live set it
// reads the Eastmoney list first; the generator covers failures and the
// offline case. The second result names the data source.
func (f *Fetcher) MarketStocks(ctx context.Context, market string, limit int, live bool) ([]models.Stock, string) {
	if live && f.List != nil {
		var stocks []models.Stock
		err := f.tracker.Track("eastmoney "+market, func() error {
			var err error
			stocks, err = f.List.All(ctx, market, limit, f.Delay)
			return err
		})
		if err == nil && len(stocks) > 0 {
			f.logger.Info("Fetched %d %s stocks from eastmoney", len(stocks), market)
			return stocks, "eastmoney"
		}
		f.logger.Warn("eastmoney list for %s unavailable (%v), generating data", market, err)
	}

	var stocks []models.Stock
	_ = f.tracker.Track("generate "+market, func() error {
		stocks = f.Gen.Market(market, limit)
		return nil
	})
	return stocks, "mock"
}
