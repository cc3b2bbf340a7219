// Package export assembles the JSON files read by the mini-program and
// writes them, plus an XLSX sheet of the best-scored stocks.
package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-pinyin"

	"investnotes/internal/market"
	"investnotes/internal/notes"
	"investnotes/internal/scoring"
	"investnotes/internal/utils"
	"investnotes/models"
)

// File names of the bundle, in write order.
const (
	FileStocksA  = "stocks_a.json"
	FileStocksHK = "stocks_hk.json"
	FileAnalysis = "analysis_samples.json"
	FileSummary  = "summary.json"
	FileTiming   = "market_timing.json"
	FileSearch   = "stock_search_index.json"
	FileQuotes   = "laoliu_quotes.json"
)

const (
	defaultDividendYield = 2.5
	contrarianDrop       = -5.0
	sampleTargetRatio    = 1.15
)

// Bundle is the full set of files served to the mini-program.
type Bundle struct {
	StocksA  models.StockFile
	StocksHK models.StockFile
	Analysis models.AnalysisFile
	Summary  models.Summary
	Timing   models.MarketTiming
	Search   models.SearchIndex
	Quotes   models.QuoteBook
}

// Builder derives a Bundle from scored stock lists.
type Builder struct {
	TopAnalysis int
	TopPicks    int
	Source      string
	Quotes      []models.Quote
	now         func() time.Time
}

// NewBuilder uses the curated quotes unless Quotes is replaced.
func NewBuilder(topAnalysis, topPicks int) *Builder {
	return &Builder{
		TopAnalysis: topAnalysis,
		TopPicks:    topPicks,
		Quotes:      notes.Curated(),
		now:         time.Now,
	}
}

// Build assembles every file from the A-share and Hong Kong lists.
func (b *Builder) Build(a, hk []models.Stock) *Bundle {
	now := b.now()
	stamp := now.Format(utils.TimeLayout)

	ranked := rankByScore(a)
	bundle := &Bundle{
		StocksA:  stockFile(a, models.MarketA, b.Source, stamp),
		StocksHK: stockFile(hk, models.MarketHK, b.Source, stamp),
		Analysis: analysisFile(head(ranked, b.TopAnalysis), stamp),
		Timing:   scoring.Timing(a, stamp),
		Search:   searchIndex(append(append([]models.Stock{}, a...), hk...), stamp),
		Quotes:   notes.BuildBook(b.Quotes, now),
	}
	bundle.Summary = summary(a, hk, head(ranked, b.TopPicks), bundle.Timing.MarketPhase, stamp)
	return bundle
}

func stockFile(stocks []models.Stock, mkt, source, stamp string) models.StockFile {
	if stocks == nil {
		stocks = []models.Stock{}
	}
	return models.StockFile{
		TotalCount: len(stocks),
		Market:     market.FileMarket(mkt),
		UpdateTime: stamp,
		DataSource: source,
		Stocks:     stocks,
	}
}

// rankByScore orders a copy of stocks by score, highest first, keeping code
// order among equal scores.
func rankByScore(stocks []models.Stock) []models.Stock {
	ranked := append([]models.Stock(nil), stocks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].LaoLiuScore != ranked[j].LaoLiuScore {
			return ranked[i].LaoLiuScore > ranked[j].LaoLiuScore
		}
		return ranked[i].Code < ranked[j].Code
	})
	return ranked
}

func head(stocks []models.Stock, n int) []models.Stock {
	if n <= 0 {
		return []models.Stock{}
	}
	if n < len(stocks) {
		return stocks[:n]
	}
	return stocks
}

// Sample builds the detailed analysis of one stock.
func Sample(s models.Stock) models.AnalysisSample {
	industry := s.Industry
	if industry == "" {
		industry = "未分类"
	}
	return models.AnalysisSample{
		BasicInfo: models.BasicInfo{
			Code:          s.Code,
			Name:          s.Name,
			MarketType:    s.Market,
			CurrentPrice:  s.CurrentPrice,
			ChangePercent: s.ChangePercent,
			Volume:        s.Volume,
			MarketCap:     s.MarketCap,
			Industry:      industry,
			UpdateTime:    s.UpdateTime,
		},
		ValuationMetrics: models.ValuationMetrics{
			PERatio:       s.PERatio,
			PBRatio:       s.PBRatio,
			DividendYield: defaultDividendYield,
		},
		LaoLiuEvaluation: models.LaoLiuEvaluation{
			LaoLiuScore:           s.LaoLiuScore,
			AnalysisPoints:        s.AnalysisPoints,
			RiskWarnings:          s.RiskWarnings,
			InvestmentAdvice:      s.InvestmentAdvice,
			ContrarianOpportunity: s.ChangePercent < contrarianDrop,
			VolumePriceSignal:     scoring.VolumePriceSignal(s.ChangePercent, s.Volume),
		},
		InvestmentSummary: models.InvestmentSummary{
			ComprehensiveScore: s.LaoLiuScore,
			Recommendation:     s.Recommendation,
			Confidence:         scoring.Confidence(s.LaoLiuScore),
			TargetPrice:        scoring.Round2(s.CurrentPrice * sampleTargetRatio),
			StopLoss:           scoring.StopLoss(s.CurrentPrice),
			PositionSuggestion: scoring.PositionSuggestion(s.LaoLiuScore),
		},
	}
}

func analysisFile(stocks []models.Stock, stamp string) models.AnalysisFile {
	results := make([]models.AnalysisSample, 0, len(stocks))
	for _, s := range stocks {
		results = append(results, Sample(s))
	}
	return models.AnalysisFile{
		TotalCount:      len(results),
		UpdateTime:      stamp,
		AnalysisResults: results,
	}
}

func marketStats(stocks []models.Stock) models.MarketStats {
	st := models.MarketStats{Total: len(stocks)}
	var sum float64
	for _, s := range stocks {
		switch {
		case s.ChangePercent > 0:
			st.Rising++
		case s.ChangePercent < 0:
			st.Falling++
		}
		sum += s.ChangePercent
	}
	if len(stocks) > 0 {
		st.AvgChange = scoring.Round2(sum / float64(len(stocks)))
	}
	return st
}

func summary(a, hk, top []models.Stock, phase, stamp string) models.Summary {
	picks := make([]models.Pick, 0, len(top))
	for _, s := range top {
		picks = append(picks, models.Pick{
			Code:             s.Code,
			Name:             s.Name,
			LaoLiuScore:      s.LaoLiuScore,
			CurrentPrice:     s.CurrentPrice,
			ChangePercent:    s.ChangePercent,
			InvestmentAdvice: s.InvestmentAdvice,
		})
	}
	return models.Summary{
		UpdateTime:    stamp,
		TotalStocks:   len(a) + len(hk),
		AStocksCount:  len(a),
		HKStocksCount: len(hk),
		Markets: map[string]models.MarketStats{
			"a_stocks":  marketStats(a),
			"hk_stocks": marketStats(hk),
		},
		MarketTiming:    phase,
		MarketSentiment: scoring.Sentiment(append(append([]models.Stock{}, a...), hk...)),
		TopLaoLiuPicks:  picks,
	}
}

var initialsArgs = func() pinyin.Args {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter
	args.Fallback = func(r rune, _ pinyin.Args) []string {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return []string{string(r)}
		}
		return nil
	}
	return args
}()

// Initials returns the lower-case pinyin initials of a company name, keeping
// Latin letters and digits, e.g. "万科A" becomes "wka".
func Initials(name string) string {
	return strings.ToLower(strings.Join(pinyin.LazyPinyin(name, initialsArgs), ""))
}

func searchIndex(stocks []models.Stock, stamp string) models.SearchIndex {
	idx := models.SearchIndex{
		UpdateTime: stamp,
		Stocks:     make(map[string]models.SearchEntry, len(stocks)),
	}
	for _, s := range stocks {
		industry := s.Industry
		if industry == "" {
			industry = market.UnknownIndustry
		}
		initials := Initials(s.Name)
		keywords := []string{s.Name, s.Code, industry}
		if initials != "" {
			keywords = append(keywords, initials)
		}
		idx.Stocks[s.Code] = models.SearchEntry{
			Code:     s.Code,
			Name:     s.Name,
			Market:   s.Market,
			Industry: industry,
			Pinyin:   initials,
			Keywords: keywords,
		}
	}
	return idx
}

// files pairs each file name with its content in write order.
func (b *Bundle) files() []struct {
	name string
	v    interface{}
} {
	return []struct {
		name string
		v    interface{}
	}{
		{FileStocksA, b.StocksA},
		{FileStocksHK, b.StocksHK},
		{FileAnalysis, b.Analysis},
		{FileSummary, b.Summary},
		{FileTiming, b.Timing},
		{FileSearch, b.Search},
		{FileQuotes, b.Quotes},
	}
}

// Write stores every file of the bundle in each of dirs.
func (b *Bundle) Write(dirs ...string) error {
	for _, dir := range dirs {
		for _, f := range b.files() {
			if err := utils.WriteJSON(filepath.Join(dir, f.name), f.v); err != nil {
				return fmt.Errorf("failed to write bundle to %s: %w", dir, err)
			}
		}
	}
	return nil
}

// WriteQuotes stores only the quote collection in each of dirs.
func WriteQuotes(book models.QuoteBook, dirs ...string) error {
	for _, dir := range dirs {
		if err := utils.WriteJSON(filepath.Join(dir, FileQuotes), book); err != nil {
			return err
		}
	}
	return nil
}

// LoadStocks reads both stock files from dir.
func LoadStocks(dir string) (a, hk models.StockFile, err error) {
	if err = utils.ReadJSON(filepath.Join(dir, FileStocksA), &a); err != nil {
		return a, hk, err
	}
	err = utils.ReadJSON(filepath.Join(dir, FileStocksHK), &hk)
	return a, hk, err
}
