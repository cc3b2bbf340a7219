// Package scoring implements the Lao Liu stock score and the advice derived
// from it.
package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Recommendation codes written to the stock files.
const (
	StrongBuy = "strong_buy"
	Buy       = "buy"
	Hold      = "hold"
	Sell      = "sell"
)

const (
	baseScore       = 50
	maxPoints       = 3
	maxRiskWarnings = 2
)

// Input carries the four figures the score depends on. Zero or negative
// ratios mean the value is unknown and earn no points.
type Input struct {
	PE            float64
	PB            float64
	Industry      string
	ChangePercent float64
}

// Evaluation is a scored Input with the text shown next to it.
type Evaluation struct {
	Score          int
	Advice         string
	Recommendation string
	Points         []string
	Risks          []string
}

// LaoLiuScore returns the weighted score for in, clipped to [0, 100].
func LaoLiuScore(in Input) int {
	score := baseScore

	switch {
	case in.PE > 0 && in.PE <= 15:
		score += 20
	case in.PE > 15 && in.PE <= 25:
		score += 10
	case in.PE > 30:
		score -= 10
	}

	switch {
	case in.PB > 0 && in.PB <= 2:
		score += 15
	case in.PB > 5:
		score -= 10
	}

	switch in.Industry {
	case "银行":
		score += 15
	case "食品饮料", "医药":
		score += 10
	case "科技", "电子":
		score += 5
	}

	if in.ChangePercent < -5 {
		score += 5
	}

	return clip(score, 0, 100)
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Advice(score int) string {
	switch {
	case score >= 80:
		return "强烈推荐：基本面优秀，符合老刘理念"
	case score >= 65:
		return "推荐：基本面良好，可适当配置"
	case score >= 50:
		return "观望：存在投资价值，建议观察"
	default:
		return "不推荐：风险较高，暂不建议"
	}
}

func Recommendation(score int) string {
	switch {
	case score >= 80:
		return StrongBuy
	case score >= 65:
		return Buy
	case score >= 50:
		return Hold
	default:
		return Sell
	}
}

// AnalysisPoints lists at most three reasons in favour of the stock.
func AnalysisPoints(in Input) []string {
	var points []string
	if in.PE > 0 && in.PE <= 15 {
		points = append(points, fmt.Sprintf("PE仅%s倍，估值偏低", formatRatio(in.PE)))
	}
	if in.PB > 0 && in.PB <= 2 {
		points = append(points, fmt.Sprintf("PB仅%s倍，账面价值安全", formatRatio(in.PB)))
	}
	switch in.Industry {
	case "银行":
		points = append(points, "银行业符合老刘投资偏好")
	case "食品饮料":
		points = append(points, "消费行业，品牌价值稳定")
	case "医药":
		points = append(points, "医药行业成长性良好")
	}
	if len(points) == 0 {
		return []string{"基本面分析中"}
	}
	if len(points) > maxPoints {
		points = points[:maxPoints]
	}
	return points
}

// RiskWarnings lists at most two risks. The result is never nil.
func RiskWarnings(in Input) []string {
	risks := []string{}
	if in.PE > 30 {
		risks = append(risks, "市盈率偏高，注意估值风险")
	}
	if in.PB > 5 {
		risks = append(risks, "市净率较高，账面价值风险")
	}
	if in.Industry == "房地产" || in.Industry == "钢铁" {
		risks = append(risks, "行业景气度需关注")
	}
	if len(risks) > maxRiskWarnings {
		risks = risks[:maxRiskWarnings]
	}
	return risks
}

func Evaluate(in Input) Evaluation {
	score := LaoLiuScore(in)
	return Evaluation{
		Score:          score,
		Advice:         Advice(score),
		Recommendation: Recommendation(score),
		Points:         AnalysisPoints(in),
		Risks:          RiskWarnings(in),
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// formatRatio prints a ratio the way the stock files store it: at most two
// decimals with trailing zeros dropped, but always one decimal.
func formatRatio(v float64) string {
	s := decimal.NewFromFloat(v).Round(2).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
