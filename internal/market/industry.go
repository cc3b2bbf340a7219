package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	DefaultProfileURL = "https://vip.stock.finance.sina.com.cn/corp/go.php/vCI_CorpInfo/stockid/%s.phtml"
	UnknownIndustry   = "未知"
)

var industryLabels = []string{"所属行业", "行业类别", "所属板块"}

// IndustryLookup reads the industry from a company profile page and caches
// it per code.
type IndustryLookup struct {
	URLFormat string
	HTTP      *http.Client
	GBK       bool

	mu    sync.Mutex
	cache map[string]string
}

func NewIndustryLookup(urlFormat string, timeout time.Duration) *IndustryLookup {
	if urlFormat == "" {
		urlFormat = DefaultProfileURL
	}
	return &IndustryLookup{
		URLFormat: urlFormat,
		HTTP:      &http.Client{Timeout: timeout},
		GBK:       true,
		cache:     make(map[string]string),
	}
}

// Industry returns the industry of code, or UnknownIndustry when the page
// does not name one.
func (l *IndustryLookup) Industry(ctx context.Context, code string) (string, error) {
	l.mu.Lock()
	if v, ok := l.cache[code]; ok {
		l.mu.Unlock()
		return v, nil
	}
	l.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(l.URLFormat, code), nil)
	if err != nil {
		return UnknownIndustry, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.HTTP.Do(req)
	if err != nil {
		return UnknownIndustry, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UnknownIndustry, fmt.Errorf("profile page returned status %d", resp.StatusCode)
	}

	body := resp.Body
	var doc *goquery.Document
	if l.GBK {
		doc, err = goquery.NewDocumentFromReader(transform.NewReader(body, simplifiedchinese.GBK.NewDecoder()))
	} else {
		doc, err = goquery.NewDocumentFromReader(body)
	}
	if err != nil {
		return UnknownIndustry, err
	}

	industry := ExtractIndustry(doc)
	l.mu.Lock()
	l.cache[code] = industry
	l.mu.Unlock()
	return industry, nil
}

// ExtractIndustry looks for a table cell labelled with one of the industry
// captions and returns the text of the cell after it.
func ExtractIndustry(doc *goquery.Document) string {
	industry := UnknownIndustry
	doc.Find("td, th").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		label := strings.TrimSpace(strings.TrimRight(sel.Text(), ":："))
		for _, want := range industryLabels {
			if label != want {
				continue
			}
			value := strings.TrimSpace(sel.Next().Text())
			if value != "" {
				industry = value
				return false
			}
		}
		return true
	})
	return industry
}
