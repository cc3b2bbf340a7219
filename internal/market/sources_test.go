package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"investnotes/internal/utils"
	"investnotes/models"
)

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

const aLine = `var hq_str_sh600000="浦发银行,10.00,10.00,10.50,10.80,9.90,10.49,10.50,123456789,1296000000.0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,2024-05-06,15:00:00,00";`

func TestParseSinaAShare(t *testing.T) {
	q, err := ParseSina(aLine, "600000", models.MarketA)
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", q.Name)
	assert.Equal(t, 10.5, q.Price)
	assert.Equal(t, 10.0, q.PrevClose)
	assert.Equal(t, 5.0, q.ChangePercent)
	assert.Equal(t, int64(123456789), q.Volume)
	assert.Equal(t, "sina", q.Source)
}

func TestParseSinaHK(t *testing.T) {
	line := `var hq_str_hk00700="TENCENT,腾讯控股,300.000,300.000,310.000,295.000,306.000,6.000,2.000,305.800,306.000,5000000000,16000000,0,0";`
	q, err := ParseSina(line, "00700", models.MarketHK)
	require.NoError(t, err)
	assert.Equal(t, "腾讯控股", q.Name)
	assert.Equal(t, 306.0, q.Price)
	assert.Equal(t, 2.0, q.ChangePercent)
	assert.Equal(t, int64(16000000), q.Volume)
}

func TestParseSinaEmpty(t *testing.T) {
	_, err := ParseSina(`var hq_str_sh999999="";`, "999999", models.MarketA)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ParseSina(`var hq_str_sh600000="a,b,c";`, "600000", models.MarketA)
	assert.ErrorIs(t, err, ErrNotFound)
}

const haltedLine = `var hq_str_sh600000="浦发银行,0.000,10.00,0.000,0.000,0.000,0.000,0.000,0,0.000,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,2024-05-06,15:00:00,03";`

func TestParseSinaHalted(t *testing.T) {
	_, err := ParseSina(haltedLine, "600000", models.MarketA)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetcherSkipsHaltedSinaQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gbk(t, haltedLine))
	}))
	defer srv.Close()

	f := NewFetcher(utils.NewNopLogger(), nil, NewSinaClient(srv.URL+"/list=", time.Second))
	f.Gen = fixedGenerator()
	s := f.Quote(context.Background(), "600000", models.MarketA)

	assert.Equal(t, "mock", s.DataSource)
	assert.Greater(t, s.CurrentPrice, 0.0)
}

func TestSinaClientDecodesGBK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list=sh600000", r.URL.Path)
		assert.Equal(t, sinaReferer, r.Header.Get("Referer"))
		w.Write(gbk(t, aLine))
	}))
	defer srv.Close()

	c := NewSinaClient(srv.URL+"/list=", time.Second)
	q, err := c.Quote(context.Background(), "600000", models.MarketA)
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", q.Name)
}

func TestSinaClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSinaClient(srv.URL+"/", time.Second).Quote(context.Background(), "600000", models.MarketA)
	assert.Error(t, err)
}

func TestEastmoneyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("fltt"))
		assert.Equal(t, marketFilters[models.MarketA], r.URL.Query().Get("fs"))
		fmt.Fprint(w, `{"data":{"total":3,"diff":[
			{"f2":10.5,"f3":-6.1,"f5":1000,"f7":3.2,"f8":1.1,"f9":6.5,"f12":"600000","f14":"浦发银行","f20":300000000000,"f23":0.5,"f100":"银行"},
			{"f2":"-","f3":"-","f5":"-","f9":"-","f12":"600001","f14":"停牌股份","f23":"-","f100":"-"},
			{"f12":"","f14":""}
		]}}`)
	}))
	defer srv.Close()

	c := NewEastmoneyClient(srv.URL, time.Second)
	stocks, err := c.List(context.Background(), models.MarketA, 1, 100)
	require.NoError(t, err)
	require.Len(t, stocks, 2)

	assert.Equal(t, "浦发银行", stocks[0].Name)
	assert.Equal(t, 10.5, stocks[0].CurrentPrice)
	assert.Equal(t, "银行", stocks[0].Industry)
	assert.Equal(t, 100, stocks[0].LaoLiuScore)
	assert.Equal(t, "eastmoney", stocks[0].DataSource)

	assert.Equal(t, 0.0, stocks[1].CurrentPrice)
	assert.Equal(t, UnknownIndustry, stocks[1].Industry)
	assert.Equal(t, 50, stocks[1].LaoLiuScore)
}

func TestEastmoneyAllStopsOnShortPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"data":{"total":1,"diff":[{"f2":1,"f12":"00700","f14":"腾讯控股"}]}}`)
	}))
	defer srv.Close()

	stocks, err := NewEastmoneyClient(srv.URL, time.Second).All(context.Background(), models.MarketHK, 0, 0)
	require.NoError(t, err)
	assert.Len(t, stocks, 1)
	assert.Equal(t, 1, calls)

	_, err = NewEastmoneyClient(srv.URL, time.Second).List(context.Background(), "US", 1, 1)
	assert.Error(t, err)
}

func TestIndustryLookup(t *testing.T) {
	page := `<html><body><table>
		<tr><td>公司名称：</td><td>浦发银行</td></tr>
		<tr><td>所属行业：</td><td> 银行 </td></tr>
	</table></body></html>`
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if strings.Contains(r.URL.Path, "600000") {
			w.Write(gbk(t, page))
			return
		}
		w.Write(gbk(t, "<html><body>无数据</body></html>"))
	}))
	defer srv.Close()

	l := NewIndustryLookup(srv.URL+"/corp/%s.phtml", time.Second)
	industry, err := l.Industry(context.Background(), "600000")
	require.NoError(t, err)
	assert.Equal(t, "银行", industry)

	_, err = l.Industry(context.Background(), "600000")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	industry, err = l.Industry(context.Background(), "000000")
	require.NoError(t, err)
	assert.Equal(t, UnknownIndustry, industry)
}

type fakeSource struct {
	name  string
	quote *Quote
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Quote(ctx context.Context, code, market string) (*Quote, error) {
	f.calls++
	return f.quote, f.err
}

func TestFetcherFallsBackInOrder(t *testing.T) {
	failing := &fakeSource{name: "sina", err: errors.New("blocked")}
	browser := &fakeSource{name: "chromedp", quote: &Quote{
		Name: "浦发银行", Price: 10.456, PrevClose: 10, High: 10.6, Low: 9.9, ChangePercent: 4.56, Volume: 42, Source: "chromedp",
	}}

	f := NewFetcher(utils.NewNopLogger(), nil, failing, browser)
	f.Gen = fixedGenerator()
	s := f.Quote(context.Background(), "600000", models.MarketA)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, browser.calls)
	assert.Equal(t, "chromedp", s.DataSource)
	assert.Equal(t, "浦发银行", s.Name)
	assert.Equal(t, 10.46, s.CurrentPrice)
	assert.Equal(t, 7.0, s.Amplitude)
	assert.Equal(t, int64(42), s.Volume)

	agg, ok := f.tracker.Aggregate("sina")
	require.True(t, ok)
	assert.Equal(t, 1, agg.Failures)
}

func TestFetcherUsesGeneratorLast(t *testing.T) {
	f := NewFetcher(utils.NewNopLogger(), nil, &fakeSource{name: "sina", err: ErrNotFound})
	f.Gen = fixedGenerator()
	s := f.Quote(context.Background(), "600000", models.MarketA)

	want := fixedGenerator().Stock("600000", models.MarketA)
	assert.Equal(t, "mock", s.DataSource)
	assert.Equal(t, want.CurrentPrice, s.CurrentPrice)

	stocks, err := f.Quotes(context.Background(), []string{"600000", "000001"}, models.MarketA)
	require.NoError(t, err)
	assert.Len(t, stocks, 2)
}

func TestMarketStocksOffline(t *testing.T) {
	f := NewFetcher(utils.NewNopLogger(), nil)
	f.Gen = fixedGenerator()
	stocks, source := f.MarketStocks(context.Background(), models.MarketHK, 5, true)
	assert.Equal(t, "mock", source)
	assert.Len(t, stocks, 5)
}
