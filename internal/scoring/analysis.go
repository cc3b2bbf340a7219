package scoring

import (
	"fmt"
	"math"

	"investnotes/models"
)

const (
	defaultWisdom = "败于原价，死于抄底，终于杠杆"
	timingWisdom  = "人弃我取，在别人恐惧时贪婪，在别人贪婪时恐惧"
)

// VolumePriceSignal reads the day's change against traded volume.
func VolumePriceSignal(change float64, volume int64) string {
	switch {
	case volume == 0:
		return "无成交量数据"
	case change > 3 && volume > 50_000_000:
		return "放量上涨 - 资金追捧，可关注"
	case change > 1 && volume < 20_000_000:
		return "缩量上涨 - 惜售心理，继续上涨"
	case change < -3 && volume > 50_000_000:
		return "放量下跌 - 恐慌抛售，或现低点"
	case change < -1 && volume < 20_000_000:
		return "缩量下跌 - 继续下跌趋势"
	case math.Abs(change) < 1 && volume > 80_000_000:
		if change >= 0 {
			return "放量不涨 - 头部出现信号"
		}
		return "放量不跌 - 底部已现信号"
	case volume < 10_000_000:
		return "无量状态 - 需要放量确认方向"
	default:
		return "量价关系正常"
	}
}

// Confidence maps a score to 高, 中 or 低.
func Confidence(score int) string {
	switch {
	case score >= 80:
		return "高"
	case score >= 60:
		return "中"
	default:
		return "低"
	}
}

// TargetPrice applies 25%, 15% or 5% upside depending on the score.
func TargetPrice(price float64, score int) float64 {
	switch {
	case score >= 80:
		return Round2(price * 1.25)
	case score >= 60:
		return Round2(price * 1.15)
	default:
		return Round2(price * 1.05)
	}
}

// StopLoss is a fixed 15% below price.
func StopLoss(price float64) float64 {
	return Round2(price * 0.85)
}

func PositionSuggestion(score int) string {
	switch {
	case score >= 80:
		return "可适当加大仓位，建议3-5成"
	case score >= 60:
		return "可适度配置，建议1-3成"
	case score >= 40:
		return "小仓位试探，建议不超过1成"
	default:
		return "建议观望，暂不配置"
	}
}

// Sentiment is the contrarian reading of how many stocks rose.
func Sentiment(stocks []models.Stock) models.MarketSentiment {
	if len(stocks) == 0 {
		return models.MarketSentiment{Sentiment: "unknown", Advice: "数据不足"}
	}

	rising := 0
	totalPE := 0.0
	for _, s := range stocks {
		if s.ChangePercent > 0 {
			rising++
		}
		pe := s.PERatio
		if pe <= 0 {
			pe = 20
		}
		totalPE += pe
	}
	ratio := float64(rising) / float64(len(stocks))

	out := models.MarketSentiment{
		RiseRatio: ratio,
		AvgPE:     math.Round(totalPE/float64(len(stocks))*10) / 10,
		Wisdom:    defaultWisdom + " - 控制风险是第一要务",
	}
	switch {
	case ratio > 0.8:
		out.Sentiment, out.Advice, out.OpportunityType = "过度乐观", "市场过热，应保持警惕，考虑逢高减仓", "卖出机会"
	case ratio > 0.6:
		out.Sentiment, out.Advice, out.OpportunityType = "乐观", "市场情绪良好，可维持仓位，精选个股", "持有观望"
	case ratio < 0.2:
		out.Sentiment, out.Advice, out.OpportunityType = "过度悲观", "市场恐慌，正是'人弃我取'的好时机", "逆向买入机会"
	case ratio < 0.4:
		out.Sentiment, out.Advice, out.OpportunityType = "悲观", "市场低迷，可考虑分批建仓优质标的", "分批买入机会"
	default:
		out.Sentiment, out.Advice, out.OpportunityType = "平衡", "市场相对平衡，按既定策略执行", "正常操作"
	}
	return out
}

// DefaultTiming is written when no market data is available.
func DefaultTiming(updateTime string) models.MarketTiming {
	return models.MarketTiming{
		UpdateTime:         updateTime,
		MarketPhase:        "震荡市",
		PositionSuggestion: 0.5,
		SentimentScore:     0.5,
		Recommendations: []string{
			"市场数据获取中，建议谨慎操作",
			"保持合理仓位，关注优质个股",
			"严格遵循风控原则",
		},
		TimingSignals: []models.TimingSignal{},
		LaoLiuWisdom:  defaultWisdom,
	}
}

// Timing derives the market phase and position suggestion from a sample of
// stocks.
func Timing(stocks []models.Stock, updateTime string) models.MarketTiming {
	if len(stocks) == 0 {
		return DefaultTiming(updateTime)
	}

	rising := 0
	totalChange := 0.0
	for _, s := range stocks {
		if s.ChangePercent > 0 {
			rising++
		}
		totalChange += s.ChangePercent
	}
	n := float64(len(stocks))
	ratio := float64(rising) / n
	avgChange := totalChange / n

	var phase string
	var position float64
	switch {
	case ratio > 0.7:
		phase, position = "牛市中期", 0.8
	case ratio > 0.5:
		phase, position = "震荡上升", 0.6
	case ratio > 0.3:
		phase, position = "震荡市", 0.5
	default:
		phase, position = "调整期", 0.3
	}

	mood := "谨慎"
	if ratio > 0.5 {
		mood = "乐观"
	}
	activity := "相对平稳"
	if math.Abs(avgChange) > 1 {
		activity = "活跃"
	}
	stance := "平衡"
	if position > 0.6 {
		stance = "积极"
	} else if position < 0.4 {
		stance = "谨慎"
	}

	return models.MarketTiming{
		UpdateTime:         updateTime,
		MarketPhase:        phase,
		PositionSuggestion: position,
		SentimentScore:     Round2(ratio),
		Recommendations: []string{
			fmt.Sprintf("当前市场%d%%的股票上涨，市场情绪%s", int(ratio*100), mood),
			fmt.Sprintf("平均涨跌幅%.2f%%，市场%s", avgChange, activity),
			fmt.Sprintf("建议仓位%d%%，%s配置", int(math.Round(position*100)), stance),
			"严格遵循老刘理念：" + defaultWisdom,
		},
		TimingSignals: []models.TimingSignal{
			{
				Name:        "技术面",
				Signal:      signal(ratio, 0.6, 0.4),
				Score:       Round2(ratio),
				Description: fmt.Sprintf("市场上涨股票比例%d%%", int(ratio*100)),
			},
			{
				Name:        "情绪面",
				Signal:      signal(avgChange, 1, -1),
				Score:       Round2(math.Max(0, math.Min(1, (avgChange+5)/10))),
				Description: fmt.Sprintf("平均涨跌幅%.2f%%", avgChange),
			},
		},
		LaoLiuWisdom: timingWisdom,
	}
}

func signal(v, positive, neutral float64) string {
	switch {
	case v > positive:
		return "positive"
	case v > neutral:
		return "neutral"
	default:
		return "negative"
	}
}
