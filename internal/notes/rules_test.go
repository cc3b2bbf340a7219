package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investnotes/models"
)

const ruleText = `PE<15且ROE>15%时买入
MACD金叉向上买入
跌破均线卖出
牛市仓位保持8成仓
熊市半仓操作
止损8%坚决执行
这是最重要的经验

`

func contents(rules []models.Rule) []string {
	var out []string
	for _, r := range rules {
		out = append(out, r.Content)
	}
	return out
}

func TestExtractRules(t *testing.T) {
	set := NewRuleExtractor().Extract(ruleText)

	t.Run("selection", func(t *testing.T) {
		require.Equal(t, []string{"PE<15且ROE>15%时买入", "MACD金叉向上买入", "跌破均线卖出"}, contents(set.SelectionRules))

		r := set.SelectionRules[0]
		assert.Equal(t, "buy", r.Action)
		assert.InDelta(t, 0.9, r.Confidence, 1e-9)
		require.Len(t, r.Conditions, 2)
		assert.Equal(t, models.Condition{Indicator: "PE", Operator: "<", Value: 15}, r.Conditions[0])
		assert.Equal(t, "ROE", r.Conditions[1].Indicator)
		assert.Equal(t, ">", r.Conditions[1].Operator)
		assert.InDelta(t, 0.15, r.Conditions[1].Value, 1e-9)

		assert.Equal(t, "sell", set.SelectionRules[2].Action)
	})

	t.Run("timing", func(t *testing.T) {
		require.Len(t, set.TimingRules, 2)
		assert.Equal(t, "macd_bullish", set.TimingRules[0].Signal)
		assert.Equal(t, "buy", set.TimingRules[0].Action)
		assert.Equal(t, "breakdown", set.TimingRules[1].Signal)
		assert.Equal(t, "sell", set.TimingRules[1].Action)
	})

	t.Run("position", func(t *testing.T) {
		require.Len(t, set.PositionRules, 2)
		assert.InDelta(t, 0.8, set.PositionRules[0].Position, 1e-9)
		assert.Equal(t, "bull_market", set.PositionRules[0].Condition)
		assert.InDelta(t, 0.5, set.PositionRules[1].Position, 1e-9)
		assert.Equal(t, "bear_market", set.PositionRules[1].Condition)
	})

	t.Run("risk", func(t *testing.T) {
		require.Len(t, set.RiskRules, 1)
		r := set.RiskRules[0]
		require.Len(t, r.Conditions, 1)
		assert.Equal(t, "STOP_LOSS", r.Conditions[0].Indicator)
		assert.InDelta(t, 0.08, r.Conditions[0].Value, 1e-9)
	})

	t.Run("insights", func(t *testing.T) {
		require.Len(t, set.Insights, 1)
		assert.Equal(t, "experience", set.Insights[0].Type)
		assert.Equal(t, "这是最重要的经验", set.Insights[0].Content)
	})
}

func TestExtractPanicSignal(t *testing.T) {
	set := NewRuleExtractor().Extract("市场恐慌时大盘见底")
	require.Len(t, set.TimingRules, 1)
	assert.Equal(t, "panic", set.TimingRules[0].Signal)
	assert.Equal(t, "buy", set.TimingRules[0].Action)
	assert.InDelta(t, 0.5, set.TimingRules[0].Confidence, 1e-9)
}

func TestExtractDropsSimilarRules(t *testing.T) {
	set := NewRuleExtractor().Extract("价值投资需要长期坚持的经验\n价值投资需要长期坚持经验")
	assert.Equal(t, []string{"价值投资需要长期坚持的经验"}, contents(set.Insights))
}

func TestOperatorAfter(t *testing.T) {
	tests := []struct {
		line, indicator, want string
	}{
		{"PE<15", "PE", "<"},
		{"PB≤1.5", "PB", "<="},
		{"PE不超过20", "PE", "<="},
		{"ROE≥20%", "ROE", ">="},
		{"ROE大于15", "ROE", ">"},
		{"PE15", "PE", "="},
		{"没有指标", "PE", "="},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, operatorAfter(tt.line, tt.indicator))
		})
	}
}

func TestPositionRuleConfidence(t *testing.T) {
	r, ok := positionRule("震荡市保持5成仓")
	require.True(t, ok)
	assert.InDelta(t, 0.5, r.Position, 1e-9)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
	assert.Equal(t, "sideways_market", r.Condition)

	r, ok = positionRule("牛市仓位保持8成仓")
	require.True(t, ok)
	assert.InDelta(t, 0.8, r.Position, 1e-9)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)

	r, ok = positionRule("熊市半仓操作")
	require.True(t, ok)
	assert.InDelta(t, 0.7, r.Confidence, 1e-9)
}
