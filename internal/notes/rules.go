package notes

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"investnotes/models"
)

const (
	baseConfidence    = 0.5
	insightConfidence = 0.7
	similarThreshold  = 0.7
)

var (
	stockKeywords = []string{
		"买入", "卖出", "持有", "观望", "减仓", "加仓", "止损",
		"PE", "PB", "ROE", "ROA", "市盈率", "市净率", "净资产收益率",
		"营收", "利润", "现金流", "负债率", "毛利率", "净利率",
		"估值", "价值", "成长", "分红", "股息", "业绩", "财报",
	}
	timingKeywords = []string{
		"大盘", "趋势", "牛市", "熊市", "震荡", "突破", "支撑", "压力",
		"均线", "MACD", "KDJ", "RSI", "成交量", "换手率",
		"政策", "降准", "降息", "加息", "印花税",
	}
	positionKeywords = []string{
		"仓位", "满仓", "空仓", "半仓", "轻仓", "重仓", "分散", "集中",
		"风险", "止损", "止盈", "回撤", "波动",
	}
	riskKeywords    = []string{"止损", "止盈", "回撤", "杠杆", "风险"}
	insightKeywords = []string{
		"经验", "教训", "感悟", "心得", "体会", "反思",
		"重要", "关键", "核心", "本质", "原则",
	}
)

var (
	peRe       = regexp.MustCompile(`PE[<>≤≥]?(\d+)`)
	pbRe       = regexp.MustCompile(`PB[<>≤≥]?(\d+\.?\d*)`)
	roeRe      = regexp.MustCompile(`ROE[>≥]?(\d+\.?\d*)%?`)
	tenthsRe   = regexp.MustCompile(`(\d+)成仓`)
	riskPctRe  = regexp.MustCompile(`(止损|止盈|回撤)[^\d]{0,4}(\d+\.?\d*)%`)
	riskLabels = map[string]string{"止损": "STOP_LOSS", "止盈": "TAKE_PROFIT", "回撤": "DRAWDOWN"}
)

// RuleExtractor finds selection, timing, position and risk rules plus
// general insights in note text, one line at a time.
type RuleExtractor struct{}

func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract returns the deduplicated rules found in text, each category
// ordered by confidence.
func (e *RuleExtractor) Extract(text string) models.RuleSet {
	var set models.RuleSet
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if containsAny(line, stockKeywords) {
			if r, ok := selectionRule(line); ok {
				set.SelectionRules = append(set.SelectionRules, r)
			}
		}
		if containsAny(line, timingKeywords) {
			if r, ok := timingRule(line); ok {
				set.TimingRules = append(set.TimingRules, r)
			}
		}
		if containsAny(line, positionKeywords) {
			if r, ok := positionRule(line); ok {
				set.PositionRules = append(set.PositionRules, r)
			}
		}
		if containsAny(line, riskKeywords) {
			if r, ok := riskRule(line); ok {
				set.RiskRules = append(set.RiskRules, r)
			}
		}
		if containsAny(line, insightKeywords) {
			set.Insights = append(set.Insights, models.Rule{
				Type:       "experience",
				Content:    line,
				Confidence: insightConfidence,
			})
		}
	}

	set.SelectionRules = dedupe(set.SelectionRules)
	set.TimingRules = dedupe(set.TimingRules)
	set.PositionRules = dedupe(set.PositionRules)
	set.RiskRules = dedupe(set.RiskRules)
	set.Insights = dedupe(set.Insights)
	return set
}

func selectionRule(line string) (models.Rule, bool) {
	r := models.Rule{Type: "selection", Content: line, Confidence: baseConfidence}

	if m := peRe.FindStringSubmatch(line); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		r.Conditions = append(r.Conditions, models.Condition{Indicator: "PE", Operator: operatorAfter(line, "PE"), Value: v})
		r.Confidence += 0.2
	}
	if m := pbRe.FindStringSubmatch(line); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		r.Conditions = append(r.Conditions, models.Condition{Indicator: "PB", Operator: operatorAfter(line, "PB"), Value: v})
		r.Confidence += 0.2
	}
	if m := roeRe.FindStringSubmatch(line); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		if strings.Contains(line, "%") {
			v /= 100
		}
		r.Conditions = append(r.Conditions, models.Condition{Indicator: "ROE", Operator: operatorAfter(line, "ROE"), Value: v})
		r.Confidence += 0.2
	}

	switch {
	case strings.Contains(line, "买入"):
		r.Action = "buy"
	case strings.Contains(line, "卖出"):
		r.Action = "sell"
	case strings.Contains(line, "观望"):
		r.Action = "hold"
	}
	return r, len(r.Conditions) > 0 || r.Action != ""
}

// operatorAfter reads the comparison written within five characters after
// the first occurrence of indicator.
func operatorAfter(line, indicator string) string {
	i := strings.Index(line, indicator)
	if i < 0 {
		return "="
	}
	after := []rune(line[i+len(indicator):])
	if len(after) > 5 {
		after = after[:5]
	}
	s := string(after)
	switch {
	case strings.Contains(s, "<") || strings.Contains(s, "小于"):
		return "<"
	case strings.Contains(s, ">") || strings.Contains(s, "大于"):
		return ">"
	case strings.Contains(s, "≤") || strings.Contains(s, "不超过"):
		return "<="
	case strings.Contains(s, "≥") || strings.Contains(s, "不少于"):
		return ">="
	}
	return "="
}

func timingRule(line string) (models.Rule, bool) {
	r := models.Rule{Type: "timing", Content: line, Confidence: baseConfidence}

	if strings.Contains(line, "MACD") {
		switch {
		case strings.Contains(line, "金叉") || strings.Contains(line, "向上"):
			r.Signal, r.Action = "macd_bullish", "buy"
		case strings.Contains(line, "死叉") || strings.Contains(line, "向下"):
			r.Signal, r.Action = "macd_bearish", "sell"
		}
		r.Confidence += 0.2
	}
	if strings.Contains(line, "突破") {
		r.Signal, r.Action = "breakout", "buy"
		r.Confidence += 0.2
	}
	if strings.Contains(line, "跌破") {
		r.Signal, r.Action = "breakdown", "sell"
		r.Confidence += 0.2
	}
	switch {
	case strings.Contains(line, "恐慌"):
		r.Signal, r.Action = "panic", "buy"
	case strings.Contains(line, "贪婪"):
		r.Signal, r.Action = "greed", "sell"
	}
	return r, r.Signal != ""
}

func positionRule(line string) (models.Rule, bool) {
	r := models.Rule{Type: "position", Content: line, Confidence: baseConfidence}

	if m := tenthsRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		r.Position = float64(n) / 10
		r.Confidence += 0.3
	}
	if strings.Contains(line, "半仓") || strings.Contains(line, "5成") || strings.Contains(line, "50%") {
		r.Position = 0.5
		r.Confidence += 0.2
	}

	switch {
	case strings.Contains(line, "牛市"):
		r.Condition = "bull_market"
	case strings.Contains(line, "熊市"):
		r.Condition = "bear_market"
	case strings.Contains(line, "震荡"):
		r.Condition = "sideways_market"
	}
	return r, r.Position > 0
}

// riskRule captures stop-loss, take-profit and drawdown limits written as
// percentages, e.g. "止损8%".
func riskRule(line string) (models.Rule, bool) {
	r := models.Rule{Type: "risk", Content: line, Confidence: baseConfidence}

	for _, m := range riskPctRe.FindAllStringSubmatch(line, -1) {
		v, _ := strconv.ParseFloat(m[2], 64)
		r.Conditions = append(r.Conditions, models.Condition{
			Indicator: riskLabels[m[1]],
			Operator:  "<=",
			Value:     v / 100,
		})
		r.Confidence += 0.2
	}
	if strings.Contains(line, "减仓") || strings.Contains(line, "卖出") {
		r.Action = "reduce"
	}
	return r, len(r.Conditions) > 0 || strings.Contains(line, "止损")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// dedupe orders rules by confidence and drops any rule whose characters
// mostly overlap a rule already kept.
func dedupe(rules []models.Rule) []models.Rule {
	if len(rules) == 0 {
		return rules
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Confidence > rules[j].Confidence
	})

	var kept []models.Rule
	for _, r := range rules {
		dup := false
		for _, k := range kept {
			if similar(r.Content, k.Content) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, r)
		}
	}
	return kept
}

// similar compares the character sets of two texts.
func similar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	sa, sb := runeSet(a), runeSet(b)
	common := 0
	for r := range sa {
		if sb[r] {
			common++
		}
	}
	return float64(common)/float64(max(len(sa), len(sb))) > similarThreshold
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range s {
		set[r] = true
	}
	return set
}
