package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLaoLiuScore(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int
	}{
		{"unknown everything", Input{}, 50},
		{"cheap bank", Input{PE: 6, PB: 0.8, Industry: "银行"}, 100},
		{"cheap bank after a drop clips at 100", Input{PE: 6, PB: 0.8, Industry: "银行", ChangePercent: -7}, 100},
		{"pe 15 is cheap", Input{PE: 15}, 70},
		{"pe 25 is fair", Input{PE: 25}, 60},
		{"pe 28 earns nothing", Input{PE: 28}, 50},
		{"expensive tech", Input{PE: 45, PB: 8, Industry: "科技"}, 35},
		{"medicine", Input{PE: 20, PB: 3, Industry: "医药"}, 70},
		{"electronics after a drop", Input{PE: 40, PB: 6, Industry: "电子", ChangePercent: -6}, 40},
		{"minus five is not a drop", Input{ChangePercent: -5}, 50},
		{"negative pe is unknown", Input{PE: -3, PB: -1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LaoLiuScore(tt.in))
		})
	}
}

func TestLaoLiuScoreIsDeterministicAndBounded(t *testing.T) {
	industries := []string{"银行", "食品饮料", "房地产", "科技", "电子", "钢铁", ""}
	for _, ind := range industries {
		for pe := -5.0; pe <= 80; pe += 2.5 {
			for pb := -1.0; pb <= 12; pb += 0.5 {
				in := Input{PE: pe, PB: pb, Industry: ind, ChangePercent: -10}
				got := LaoLiuScore(in)
				assert.Equal(t, got, LaoLiuScore(in))
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
			}
		}
	}
}

func TestTiers(t *testing.T) {
	tests := []struct {
		score int
		rec   string
		head  string
	}{
		{100, StrongBuy, "强烈推荐"},
		{80, StrongBuy, "强烈推荐"},
		{79, Buy, "推荐"},
		{65, Buy, "推荐"},
		{64, Hold, "观望"},
		{50, Hold, "观望"},
		{49, Sell, "不推荐"},
		{0, Sell, "不推荐"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rec, Recommendation(tt.score), "score %d", tt.score)
		assert.Regexp(t, "^"+tt.head+"：", Advice(tt.score), "score %d", tt.score)
	}
}

func TestAnalysisPoints(t *testing.T) {
	assert.Equal(t, []string{"基本面分析中"}, AnalysisPoints(Input{PE: 40, PB: 9}))
	assert.Equal(t,
		[]string{"PE仅8.0倍，估值偏低", "PB仅0.75倍，账面价值安全", "银行业符合老刘投资偏好"},
		AnalysisPoints(Input{PE: 8, PB: 0.75, Industry: "银行"}))
	assert.Equal(t,
		[]string{"PE仅12.35倍，估值偏低", "医药行业成长性良好"},
		AnalysisPoints(Input{PE: 12.345, PB: 3, Industry: "医药"}))
}

func TestRiskWarnings(t *testing.T) {
	assert.Empty(t, RiskWarnings(Input{PE: 10, PB: 1}))
	assert.NotNil(t, RiskWarnings(Input{}))
	assert.Equal(t,
		[]string{"市盈率偏高，注意估值风险", "市净率较高，账面价值风险"},
		RiskWarnings(Input{PE: 35, PB: 6, Industry: "房地产"}))
	assert.Equal(t, []string{"行业景气度需关注"}, RiskWarnings(Input{Industry: "钢铁"}))
}

func TestEvaluate(t *testing.T) {
	ev := Evaluate(Input{PE: 10, PB: 1.5, Industry: "食品饮料"})
	assert.Equal(t, 95, ev.Score)
	assert.Equal(t, StrongBuy, ev.Recommendation)
	assert.Len(t, ev.Points, 3)
	assert.Empty(t, ev.Risks)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 11.5, Round2(10*1.15))
	assert.Equal(t, -2.35, Round2(-2.345))
}
