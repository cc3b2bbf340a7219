// Package scraper reads quotes from rendered quote pages with a headless
// Chrome. It is the live source of last resort before generated data.
package scraper

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"investnotes/internal/market"
	"investnotes/internal/utils"
)

const refreshEvery = 5

// QuoteRow is what the page extractor returns. Every field is the raw text
// shown on the page.
type QuoteRow struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	ChangePercent string `json:"changePercent"`
	Open          string `json:"open"`
	PrevClose     string `json:"prevClose"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Volume        string `json:"volume"`
}

type Scraper struct {
	logger      *utils.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      *utils.Config
	perfTracker *utils.PerformanceTracker

	mu    sync.Mutex
	count int
}

// New starts a browser configured from config.Scraper and checks that it
// launches.
func New(logger *utils.Logger, config *utils.Config) (*Scraper, error) {
	logger.Debug("Initializing Chrome")
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("lang", "zh-CN"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.NoSandbox,
		chromedp.Flag("headless", config.Scraper.Browser.Headless),
		chromedp.Flag("enable-logging", config.Scraper.Browser.Debug),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	s := &Scraper{
		logger:      logger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		config:      config,
		perfTracker: utils.NewPerformanceTracker(),
	}
	if err := s.newTab(); err != nil {
		allocCancel()
		return nil, err
	}
	return s, nil
}

func (s *Scraper) newTab() error {
	ctx, cancel := chromedp.NewContext(s.allocCtx, chromedp.WithLogf(s.logger.Debug))

	// quote pages occasionally pop an alert for delisted symbols
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			s.logger.Debug("Dialog detected: %s", ev.Message)
			go func() {
				if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Debug("Failed to handle dialog: %v", err)
				}
			}()
		}
	})

	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	s.ctx = ctx
	s.cancel = cancel
	return nil
}

// refreshBrowser replaces the tab, keeping the browser process.
func (s *Scraper) refreshBrowser() error {
	s.logger.Debug("Refreshing browser session")
	if s.cancel != nil {
		s.cancel()
	}
	return s.newTab()
}

func (s *Scraper) Name() string { return "chromedp" }

// Quote implements market.QuoteSource.
func (s *Scraper) Quote(ctx context.Context, code, mkt string) (*market.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.count > 1 && s.count%refreshEvery == 1 {
		if err := s.refreshBrowser(); err != nil {
			return nil, err
		}
	}

	s.perfTracker.StartStep("scrape " + code)
	row, err := s.getQuoteRow(ctx, code, mkt)
	if err != nil {
		s.perfTracker.FailStep()
		if strings.Contains(err.Error(), context.Canceled.Error()) {
			if rerr := s.refreshBrowser(); rerr != nil {
				s.logger.Error("Failed to refresh browser: %v", rerr)
			}
		}
		return nil, err
	}
	s.perfTracker.EndStep()

	return ParseQuoteRow(code, mkt, row)
}

func (s *Scraper) getQuoteRow(ctx context.Context, code, mkt string) (*QuoteRow, error) {
	url := QuoteURL(s.config.Scraper.QuoteURL, code, mkt)

	tabCtx, cancel := context.WithTimeout(s.ctx, time.Duration(s.config.Scraper.Timeout)*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(time.Duration(s.config.Scraper.Delay)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	var row QuoteRow
	err = chromedp.Run(tabCtx, chromedp.Evaluate(extractQuoteJS, &row))
	if err != nil {
		return nil, fmt.Errorf("failed to extract quote for %s: %w", code, err)
	}
	return &row, nil
}

// extractQuoteJS reads the quote box of the Eastmoney quote page. Labels are
// matched by text so minor layout changes do not break it.
const extractQuoteJS = `
(() => {
	const text = el => el ? el.textContent.trim() : "";
	const byLabel = label => {
		const cells = Array.from(document.querySelectorAll("td, span, div"));
		for (const c of cells) {
			if (c.children.length === 0 && c.textContent.trim().replace(/[:：]$/, "") === label) {
				return text(c.nextElementSibling);
			}
		}
		return "";
	};
	const title = document.title || "";
	return {
		name: text(document.querySelector(".quote_title_name, .name")) || title.split(/[(（]/)[0].trim(),
		price: text(document.querySelector(".zxj, #price9, .price_now")),
		changePercent: text(document.querySelector(".zdf, #km2, .price_change_percent")),
		open: byLabel("今开"),
		prevClose: byLabel("昨收"),
		high: byLabel("最高"),
		low: byLabel("最低"),
		volume: byLabel("成交量"),
	};
})()
`

// QuoteURL fills the quote page template with the exchange-prefixed symbol.
func QuoteURL(format, code, mkt string) string {
	return fmt.Sprintf(format, market.Symbol(code, mkt))
}

// ParseQuoteRow converts page text into a quote. A row without a price is
// reported as market.ErrNotFound.
func ParseQuoteRow(code, mkt string, row *QuoteRow) (*market.Quote, error) {
	price, ok := parseNumber(row.Price)
	if !ok || price <= 0 {
		return nil, fmt.Errorf("no price on quote page for %s: %w", code, market.ErrNotFound)
	}

	q := &market.Quote{
		Code:   code,
		Name:   strings.TrimSpace(row.Name),
		Market: mkt,
		Price:  price,
		Source: "chromedp",
	}
	q.Open, _ = parseNumber(row.Open)
	q.PrevClose, _ = parseNumber(row.PrevClose)
	q.High, _ = parseNumber(row.High)
	q.Low, _ = parseNumber(row.Low)
	vol, _ := parseNumber(row.Volume)
	q.Volume = int64(vol)

	if pct, ok := parseNumber(row.ChangePercent); ok {
		q.ChangePercent = pct
	} else if q.PrevClose > 0 {
		q.ChangePercent = (q.Price - q.PrevClose) / q.PrevClose * 100
	}
	return q, nil
}

// parseNumber understands the page formats "12.34", "-1.2%", "+0.5%",
// "3.2万" and "1.1亿".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "亿"):
		mult, s = 1e8, strings.TrimSuffix(s, "亿")
	case strings.HasSuffix(s, "万"):
		mult, s = 1e4, strings.TrimSuffix(s, "万")
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "手"), "%")
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func (s *Scraper) Close() {
	s.logger.Info("Closing browser...")
	if s.cancel != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		if err := chromedp.Cancel(ctx); err != nil {
			s.logger.Debug("Error during graceful shutdown: %v", err)
		}
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.logger.Info("Browser closed successfully")
}

func (s *Scraper) GetPerformanceTracker() *utils.PerformanceTracker {
	return s.perfTracker
}

// PreflightCheck verifies all dependencies and configurations
func (s *Scraper) PreflightCheck() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"Config Validation", s.validateConfig},
		{"Directory Structure", s.checkDirectories},
		{"Browser Launch", s.testBrowserLaunch},
		{"Network Settings", s.testNetworkSettings},
	}

	for _, c := range checks {
		s.logger.Debug("Running preflight check: %s", c.name)
		if err := c.check(); err != nil {
			return fmt.Errorf("%s check failed: %w", c.name, err)
		}
		s.logger.Debug("%s check passed", c.name)
	}

	return nil
}

func (s *Scraper) validateConfig() error {
	return validateScraperConfig(s.config)
}

func validateScraperConfig(config *utils.Config) error {
	if config == nil {
		return fmt.Errorf("configuration is nil")
	}
	if config.Scraper.Timeout <= 0 {
		return fmt.Errorf("invalid timeout value")
	}
	if !strings.Contains(config.Scraper.QuoteURL, "%s") {
		return fmt.Errorf("quote URL %q has no %%s placeholder", config.Scraper.QuoteURL)
	}
	return nil
}

func (s *Scraper) checkDirectories() error {
	dirs := []string{
		s.config.OCR.OutputDir,
		s.config.Logging.Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}

func (s *Scraper) testBrowserLaunch() error {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(ctx, chromedp.Navigate("about:blank"))
}

func (s *Scraper) testNetworkSettings() error {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(ctx,
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride("Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36"),
	)
}
