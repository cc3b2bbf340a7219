package market

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"investnotes/internal/scoring"
	"investnotes/models"
)

var industries = []string{
	"银行", "食品饮料", "医药", "房地产", "汽车",
	"电子", "通信设备", "化工", "机械设备", "电力",
	"交通运输", "纺织服装", "钢铁", "有色金属", "建筑材料",
	"轻工制造", "家电", "计算机", "传媒", "商贸零售",
	"公用事业", "农林牧渔", "煤炭", "石油石化", "国防军工",
	"综合", "建筑装饰", "环保", "美容护理", "社会服务",
}

var companyPrefixes = []string{
	"中国", "华为", "腾讯", "阿里", "百度", "京东", "美团", "字节",
	"平安", "招商", "工商", "建设", "农业", "中信", "民生", "浦发",
	"茅台", "五粮液", "泸州老窖", "剑南春", "洋河", "古井贡",
	"比亚迪", "长城", "吉利", "蔚来", "小鹏", "理想",
	"海康威视", "大华", "科大讯飞", "商汤", "旷视", "云从",
	"恒大", "万科", "碧桂园", "融创", "保利", "中海",
	"华润", "万达", "龙湖", "世茂", "金科", "新城",
}

var companySuffixes = []string{
	"股份", "集团", "科技", "实业", "控股", "发展", "投资",
	"有限公司", "股份有限公司", "集团有限公司", "控股有限公司",
}

// ACodes lists Shanghai main board, Shenzhen main board and ChiNext codes in
// that order.
func ACodes() []string {
	codes := make([]string, 0, 5000+2999+999)
	for i := 600000; i < 605000; i++ {
		codes = append(codes, fmt.Sprintf("%06d", i))
	}
	for i := 1; i < 3000; i++ {
		codes = append(codes, fmt.Sprintf("%06d", i))
	}
	for i := 300001; i < 301000; i++ {
		codes = append(codes, fmt.Sprintf("%06d", i))
	}
	return codes
}

func HKCodes() []string {
	codes := make([]string, 0, 2999)
	for i := 1; i < 3000; i++ {
		codes = append(codes, fmt.Sprintf("%05d", i))
	}
	return codes
}

// Generator fabricates plausible stock records. The same code always yields
// the same record apart from the update time.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// seedFor returns the numeric value of the last four characters of code, or
// 1000 when they are not all digits.
func seedFor(code string) uint64 {
	tail := code
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	n, err := strconv.ParseUint(tail, 10, 64)
	if err != nil {
		return 1000
	}
	return n
}

type rng struct{ *rand.Rand }

func newRNG(code string) rng {
	seed := seedFor(code)
	return rng{rand.New(rand.NewPCG(seed, seed))}
}

func (r rng) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// intn returns an integer in [lo, hi].
func (r rng) intn(lo, hi int64) int64 {
	return lo + r.Int64N(hi-lo+1)
}

func (r rng) choice(items []string) string {
	return items[r.IntN(len(items))]
}

func companyName(r rng, code string) string {
	prefix := r.choice(companyPrefixes)
	suffix := r.choice(companySuffixes)
	switch {
	case strings.HasPrefix(code, "60"):
		return prefix + suffix
	case strings.HasPrefix(code, "00"):
		return prefix + r.choice([]string{"科技", "实业", "集团"})
	case strings.HasPrefix(code, "30"):
		return prefix + r.choice([]string{"科技", "网络", "智能"})
	default:
		return prefix + "控股"
	}
}

func priceBand(industry string) (float64, float64) {
	switch industry {
	case "银行":
		return 4, 50
	case "食品饮料":
		return 20, 200
	case "房地产":
		return 3, 30
	case "医药":
		return 15, 100
	case "科技":
		return 10, 150
	default:
		return 5, 80
	}
}

func valuationBands(industry string) (peLo, peHi, pbLo, pbHi float64) {
	switch industry {
	case "银行":
		return 4, 15, 0.5, 2.5
	case "食品饮料":
		return 15, 35, 2, 8
	case "科技":
		return 20, 60, 1, 10
	default:
		return 8, 30, 1, 5
	}
}

// Stock generates the record for code in market.
func (g *Generator) Stock(code, market string) models.Stock {
	r := newRNG(code)

	name := companyName(r, code)
	industry := r.choice(industries)

	lo, hi := priceBand(industry)
	price := round(r.uniform(lo, hi), 2)
	change := round(r.uniform(-10, 10), 2)
	volume := r.intn(100_000, 100_000_000)
	marketCap := round(price*float64(r.intn(10_000_000, 1_000_000_000)), 0)

	peLo, peHi, pbLo, pbHi := valuationBands(industry)
	pe := round(r.uniform(peLo, peHi), 1)
	pb := round(r.uniform(pbLo, pbHi), 2)

	stock := models.Stock{
		Code:          code,
		Name:          name,
		Market:        market,
		CurrentPrice:  price,
		ChangePercent: change,
		Volume:        volume,
		MarketCap:     marketCap,
		PERatio:       pe,
		PBRatio:       pb,
		TurnoverRate:  round(r.uniform(0.1, 10), 2),
		Amplitude:     round(r.uniform(0.5, 15), 2),
		Industry:      industry,
		UpdateTime:    g.now().Format("2006-01-02 15:04:05"),
	}
	Score(&stock)
	return stock
}

// Market generates the first limit codes of market. A non-positive limit
// means every code.
func (g *Generator) Market(market string, limit int) []models.Stock {
	codes := ACodes()
	if market == models.MarketHK {
		codes = HKCodes()
	}
	if limit > 0 && limit < len(codes) {
		codes = codes[:limit]
	}
	stocks := make([]models.Stock, 0, len(codes))
	for _, code := range codes {
		stocks = append(stocks, g.Stock(code, market))
	}
	return stocks
}

// Score fills the score and the advice fields of s from its ratios.
func Score(s *models.Stock) {
	ev := scoring.Evaluate(scoring.Input{
		PE:            s.PERatio,
		PB:            s.PBRatio,
		Industry:      s.Industry,
		ChangePercent: s.ChangePercent,
	})
	s.LaoLiuScore = ev.Score
	s.InvestmentAdvice = ev.Advice
	s.Recommendation = ev.Recommendation
	s.AnalysisPoints = ev.Points
	s.RiskWarnings = ev.Risks
}
