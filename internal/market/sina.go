package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"investnotes/models"
)

const (
	DefaultSinaURL = "https://hq.sinajs.cn/list="
	sinaReferer    = "https://finance.sina.com.cn"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var hqPattern = regexp.MustCompile(`var hq_str_[^=]*="(.*?)";`)

// SinaClient reads the GBK encoded hq.sinajs.cn quote feed.
type SinaClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewSinaClient(baseURL string, timeout time.Duration) *SinaClient {
	if baseURL == "" {
		baseURL = DefaultSinaURL
	}
	return &SinaClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

func (c *SinaClient) Name() string { return "sina" }

func (c *SinaClient) Quote(ctx context.Context, code, market string) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+Symbol(code, market), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", sinaReferer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sina request for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina returned status %d for %s", resp.StatusCode, code)
	}

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sina response for %s: %w", code, err)
	}
	return ParseSina(string(body), code, market)
}

// ParseSina extracts a quote from one hq_str line. A-share lines start with
// the name followed by open, previous close and price; Hong Kong lines carry
// the English name first and the price in field 6.
func ParseSina(text, code, market string) (*Quote, error) {
	m := hqPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil, ErrNotFound
	}
	fields := strings.Split(m[1], ",")
	if len(fields) < 10 {
		return nil, fmt.Errorf("sina line for %s has %d fields: %w", code, len(fields), ErrNotFound)
	}

	q := &Quote{Code: code, Market: market, Source: "sina"}
	if market == models.MarketHK {
		if len(fields) < 13 {
			return nil, fmt.Errorf("sina hk line for %s has %d fields: %w", code, len(fields), ErrNotFound)
		}
		q.Name = fields[1]
		q.Open = parseFloat(fields[2])
		q.PrevClose = parseFloat(fields[3])
		q.High = parseFloat(fields[4])
		q.Low = parseFloat(fields[5])
		q.Price = parseFloat(fields[6])
		q.Turnover = parseFloat(fields[11])
		q.Volume = int64(parseFloat(fields[12]))
	} else {
		q.Name = fields[0]
		q.Open = parseFloat(fields[1])
		q.PrevClose = parseFloat(fields[2])
		q.Price = parseFloat(fields[3])
		q.High = parseFloat(fields[4])
		q.Low = parseFloat(fields[5])
		q.Volume = int64(parseFloat(fields[8]))
		q.Turnover = parseFloat(fields[9])
	}

	// halted and suspended stocks report a zero price
	if q.Price <= 0 {
		return nil, fmt.Errorf("sina has no price for %s: %w", code, ErrNotFound)
	}
	if q.PrevClose != 0 {
		q.ChangePercent = round((q.Price-q.PrevClose)/q.PrevClose*100, 2)
	}
	return q, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
