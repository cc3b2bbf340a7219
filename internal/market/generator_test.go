package market

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investnotes/internal/scoring"
	"investnotes/models"
)

func TestCodeLists(t *testing.T) {
	a := ACodes()
	require.Len(t, a, 5000+2999+999)
	assert.Equal(t, "600000", a[0])
	assert.Equal(t, "604999", a[4999])
	assert.Equal(t, "000001", a[5000])
	assert.Equal(t, "300999", a[len(a)-1])

	hk := HKCodes()
	require.Len(t, hk, 2999)
	assert.Equal(t, "00001", hk[0])
	assert.Equal(t, "02999", hk[len(hk)-1])
}

func TestSeedFor(t *testing.T) {
	assert.Equal(t, uint64(1234), seedFor("601234"))
	assert.Equal(t, uint64(1), seedFor("00001"))
	assert.Equal(t, uint64(1000), seedFor("hkHSI"))
	assert.Equal(t, uint64(7), seedFor("7"))
}

func fixedGenerator() *Generator {
	at := time.Date(2024, 5, 6, 15, 0, 0, 0, time.UTC)
	return &Generator{now: func() time.Time { return at }}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	g := fixedGenerator()
	first := g.Stock("600519", models.MarketA)
	second := g.Stock("600519", models.MarketA)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same code gave different records (-first +second):\n%s", diff)
	}
	assert.Equal(t, "2024-05-06 15:00:00", first.UpdateTime)
}

func TestGeneratedRecordsAreConsistent(t *testing.T) {
	g := fixedGenerator()
	for _, s := range g.Market(models.MarketA, 300) {
		assert.Contains(t, industries, s.Industry)
		lo, hi := priceBand(s.Industry)
		assert.GreaterOrEqual(t, s.CurrentPrice, lo)
		assert.LessOrEqual(t, s.CurrentPrice, hi)
		assert.GreaterOrEqual(t, s.ChangePercent, -10.0)
		assert.LessOrEqual(t, s.ChangePercent, 10.0)
		assert.GreaterOrEqual(t, s.Volume, int64(100_000))
		assert.LessOrEqual(t, s.Volume, int64(100_000_000))

		want := scoring.LaoLiuScore(scoring.Input{
			PE: s.PERatio, PB: s.PBRatio, Industry: s.Industry, ChangePercent: s.ChangePercent,
		})
		assert.Equal(t, want, s.LaoLiuScore, s.Code)
		assert.Equal(t, scoring.Recommendation(want), s.Recommendation)
		assert.NotEmpty(t, s.AnalysisPoints)
		assert.LessOrEqual(t, len(s.RiskWarnings), 2)
	}
}

func TestCompanyNameStyle(t *testing.T) {
	g := fixedGenerator()
	assert.Regexp(t, "(科技|网络|智能)$", g.Stock("300015", models.MarketA).Name)
	assert.Regexp(t, "(科技|实业|集团)$", g.Stock("000858", models.MarketA).Name)
	assert.Regexp(t, "控股$", g.Stock("01299", models.MarketHK).Name)
}

func TestMarketLimit(t *testing.T) {
	g := fixedGenerator()
	assert.Len(t, g.Market(models.MarketHK, 10), 10)
	assert.Equal(t, "00010", g.Market(models.MarketHK, 10)[9].Code)
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "sh600000", Symbol("600000", models.MarketA))
	assert.Equal(t, "sz000001", Symbol("000001", models.MarketA))
	assert.Equal(t, "sz300750", Symbol("300750", models.MarketA))
	assert.Equal(t, "hk00700", Symbol("00700", models.MarketHK))
	assert.Equal(t, models.MarketHK, MarketOf("00700"))
	assert.Equal(t, models.MarketA, MarketOf("600000"))
	assert.Equal(t, "港股", FileMarket(models.MarketHK))
}
