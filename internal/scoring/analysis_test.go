package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"investnotes/models"
)

func TestVolumePriceSignal(t *testing.T) {
	tests := []struct {
		change float64
		volume int64
		want   string
	}{
		{1, 0, "无成交量数据"},
		{4, 60_000_000, "放量上涨 - 资金追捧，可关注"},
		{2, 15_000_000, "缩量上涨 - 惜售心理，继续上涨"},
		{-4, 60_000_000, "放量下跌 - 恐慌抛售，或现低点"},
		{-2, 15_000_000, "缩量下跌 - 继续下跌趋势"},
		{0.5, 90_000_000, "放量不涨 - 头部出现信号"},
		{-0.5, 90_000_000, "放量不跌 - 底部已现信号"},
		{0.2, 5_000_000, "无量状态 - 需要放量确认方向"},
		{2, 30_000_000, "量价关系正常"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VolumePriceSignal(tt.change, tt.volume), "%v/%v", tt.change, tt.volume)
	}
}

func TestPriceTargets(t *testing.T) {
	assert.Equal(t, 12.5, TargetPrice(10, 85))
	assert.Equal(t, 11.5, TargetPrice(10, 60))
	assert.Equal(t, 10.5, TargetPrice(10, 59))
	assert.Equal(t, 8.5, StopLoss(10))
	assert.Equal(t, "高", Confidence(80))
	assert.Equal(t, "中", Confidence(60))
	assert.Equal(t, "低", Confidence(59))
	assert.Equal(t, "小仓位试探，建议不超过1成", PositionSuggestion(40))
	assert.Equal(t, "建议观望，暂不配置", PositionSuggestion(39))
}

func stocksWithChanges(changes ...float64) []models.Stock {
	out := make([]models.Stock, len(changes))
	for i, c := range changes {
		out[i] = models.Stock{ChangePercent: c, PERatio: 10}
	}
	return out
}

func TestSentiment(t *testing.T) {
	assert.Equal(t, "unknown", Sentiment(nil).Sentiment)

	s := Sentiment(stocksWithChanges(1, 1, 1, 1, 1))
	assert.Equal(t, "过度乐观", s.Sentiment)
	assert.Equal(t, 1.0, s.RiseRatio)
	assert.Equal(t, 10.0, s.AvgPE)

	assert.Equal(t, "过度悲观", Sentiment(stocksWithChanges(-1, -1, -1, -1, -1)).Sentiment)
	assert.Equal(t, "平衡", Sentiment(stocksWithChanges(1, -1)).Sentiment)
	assert.Equal(t, "悲观", Sentiment(stocksWithChanges(1, -1, -1)).Sentiment)
}

func TestTiming(t *testing.T) {
	empty := Timing(nil, "2024-01-01 00:00:00")
	assert.Equal(t, "震荡市", empty.MarketPhase)
	assert.Empty(t, empty.TimingSignals)

	bull := Timing(stocksWithChanges(2, 2, 2, 2), "now")
	assert.Equal(t, "牛市中期", bull.MarketPhase)
	assert.Equal(t, 0.8, bull.PositionSuggestion)
	assert.Equal(t, "positive", bull.TimingSignals[0].Signal)
	assert.Equal(t, "positive", bull.TimingSignals[1].Signal)
	assert.Equal(t, 0.7, bull.TimingSignals[1].Score)
	assert.Contains(t, bull.Recommendations[2], "积极")

	bear := Timing(stocksWithChanges(-3, -3, -3, 1), "now")
	assert.Equal(t, "调整期", bear.MarketPhase)
	assert.Equal(t, "negative", bear.TimingSignals[0].Signal)
	assert.Equal(t, "negative", bear.TimingSignals[1].Signal)
	assert.Contains(t, bear.Recommendations[2], "谨慎")
}
