// Package market produces stock records, either from live quote sources or
// from a deterministic generator keyed by stock code.
package market

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"investnotes/models"
)

// ErrNotFound is returned when a source has no data for a code.
var ErrNotFound = errors.New("market: no data for code")

// Quote is a live price snapshot for one stock.
type Quote struct {
	Code          string
	Name          string
	Market        string
	Open          float64
	PrevClose     float64
	Price         float64
	High          float64
	Low           float64
	ChangePercent float64
	Volume        int64
	Turnover      float64
	Source        string
}

// QuoteSource is anything that can price a single stock.
type QuoteSource interface {
	Name() string
	Quote(ctx context.Context, code, market string) (*Quote, error)
}

// MarketOf guesses the market from the code shape: five digits is Hong Kong,
// everything else is an A-share.
func MarketOf(code string) string {
	if len(code) == 5 {
		return models.MarketHK
	}
	return models.MarketA
}

// Symbol returns the exchange-prefixed symbol used by Sina and Eastmoney
// quote pages.
func Symbol(code, market string) string {
	if market == models.MarketHK {
		return "hk" + code
	}
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "9"):
		return "sh" + code
	case strings.HasPrefix(code, "8"), strings.HasPrefix(code, "4"):
		return "bj" + code
	default:
		return "sz" + code
	}
}

// FileMarket is the market label written into stocks_a.json and
// stocks_hk.json.
func FileMarket(market string) string {
	if market == models.MarketHK {
		return "港股"
	}
	return "A股"
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
