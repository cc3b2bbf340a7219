package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"investnotes/models"
)

const DefaultEastmoneyURL = "https://push2.eastmoney.com/api/qt/clist/get"

var marketFilters = map[string]string{
	models.MarketA:  "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23",
	models.MarketHK: "m:128+t:3,m:128+t:4,m:128+t:1,m:128+t:2",
}

// EastmoneyClient pages through the push2 clist endpoint.
type EastmoneyClient struct {
	BaseURL string
	HTTP    *http.Client
	now     func() time.Time
}

func NewEastmoneyClient(baseURL string, timeout time.Duration) *EastmoneyClient {
	if baseURL == "" {
		baseURL = DefaultEastmoneyURL
	}
	return &EastmoneyClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}, now: time.Now}
}

type clistResponse struct {
	Data *struct {
		Total int                          `json:"total"`
		Diff  []map[string]json.RawMessage `json:"diff"`
	} `json:"data"`
}

// List returns one page of the market list. Records come back scored.
func (c *EastmoneyClient) List(ctx context.Context, market string, page, size int) ([]models.Stock, error) {
	fs, ok := marketFilters[market]
	if !ok {
		return nil, fmt.Errorf("unknown market %q", market)
	}

	params := url.Values{}
	params.Set("pn", strconv.Itoa(page))
	params.Set("pz", strconv.Itoa(size))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("ut", "bd1d9ddb04089700cf9c27f6f7426281")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f3")
	params.Set("fs", fs)
	params.Set("fields", "f2,f3,f5,f7,f8,f9,f12,f14,f20,f23,f100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney returned status %d", resp.StatusCode)
	}

	var body clistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode eastmoney list: %w", err)
	}
	if body.Data == nil {
		return nil, nil
	}

	updated := c.now().Format("2006-01-02 15:04:05")
	stocks := make([]models.Stock, 0, len(body.Data.Diff))
	for _, item := range body.Data.Diff {
		s := models.Stock{
			Code:          str(item["f12"]),
			Name:          str(item["f14"]),
			Market:        market,
			CurrentPrice:  num(item["f2"]),
			ChangePercent: num(item["f3"]),
			Volume:        int64(num(item["f5"])),
			Amplitude:     num(item["f7"]),
			TurnoverRate:  num(item["f8"]),
			PERatio:       num(item["f9"]),
			MarketCap:     num(item["f20"]),
			PBRatio:       num(item["f23"]),
			Industry:      str(item["f100"]),
			DataSource:    "eastmoney",
			UpdateTime:    updated,
		}
		if s.Code == "" || s.Name == "" {
			continue
		}
		if s.Industry == "" || s.Industry == "-" {
			s.Industry = UnknownIndustry
		}
		Score(&s)
		stocks = append(stocks, s)
	}
	return stocks, nil
}

// All pages through the list until limit records are collected or a page
// comes back short.
func (c *EastmoneyClient) All(ctx context.Context, market string, limit int, delay time.Duration) ([]models.Stock, error) {
	const pageSize = 100
	var out []models.Stock
	for page := 1; limit <= 0 || len(out) < limit; page++ {
		batch, err := c.List(ctx, market, page, pageSize)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < pageSize {
			break
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(delay):
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// num reads a clist value. With fltt=2 numbers arrive as JSON numbers and
// missing values as "-".
func num(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return 0
}

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
