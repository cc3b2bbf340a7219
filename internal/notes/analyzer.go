package notes

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"investnotes/models"
)

// Category names a family of sentences found in a page.
type Category string

const (
	CategoryStrategies Category = "strategies"
	CategoryStocks     Category = "stocks"
	CategoryFinancial  Category = "financial"
	CategoryMarket     Category = "market"
	CategoryTechnical  Category = "technical"
	CategoryRisks      Category = "risks"
	CategoryQuotes     Category = "quotes"
	CategoryViews      Category = "views"
	CategoryTiming     Category = "timing"
)

const trimSet = "，。！？ \n\t"

const (
	minKeywordRunes = 3
	minQuoteRunes   = 5
	minViewRunes    = 5
)

var keywordFamilies = []struct {
	category Category
	keywords []string
}{
	{CategoryStrategies, []string{
		"跟着游资", "跟着热点", "跟着龙头", "人弃我取", "人取我弃",
		"价值投资", "成长投资", "逆向投资", "趋势投资", "分散投资",
		"长期投资", "长期持有", "分批买入", "定投", "波段操作",
		"择时", "持股", "减仓", "增仓", "空仓", "满仓",
	}},
	{CategoryStocks, []string{
		"A股", "港股", "美股", `[A-Z]{2,4}`, `\d{6}`,
		"京东", "阿里", "腾讯", "茅台", "比亚迪", "宁德时代",
		"房地产", "游戏", "数据", "科技", "制造业", "新能源",
		"航天", "航星", "银行", "保险", "医药", "消费",
	}},
	{CategoryFinancial, []string{
		"PE", "PB", "ROE", "ROA", "净利润", "营收", "负债率", "毛利率",
		"市盈率", "市净率", "股息率", "市值", "估值", "业绩", "财务",
		"收益", "利润", "现金流",
	}},
	{CategoryMarket, []string{
		"牛市", "熊市", "震荡", "调整", "反弹", "上涨", "下跌", "底部",
		"顶部", "突破", "支撑", "阻力", "趋势", "行情", "市场", "大盘",
		"指数", "板块",
	}},
	{CategoryTechnical, []string{
		"量价关系", "放量", "缩量", "涨停", "跌停", "支撑位", "阻力位",
		"均线", "K线", "MACD", "KDJ", "成交量", "换手率", "技术指标",
		"图形", "形态",
	}},
	{CategoryRisks, []string{
		"风险", "亏损", "套牢", "爆仓", "杠杆", "债务", "泡沫", "崩盘",
		"暴跌", "黑天鹅", "回撤", "止损",
	}},
}

var (
	quoteMasters = []string{"巴菲特", "格雷厄姆", "芒格", "杨德龙", "任泽平", "段永平"}
	famousPeople = []string{"巴菲特", "格雷厄姆", "芒格", "杨德龙", "任泽平", "段永平", "索罗斯", "利弗莫尔"}
	viewWords    = []string{"投资", "买入", "卖出", "持有"}
	timingWords  = []string{"时机", "时候", "机会"}
)

// Analyzer extracts categorized sentences from page text. The zero value is
// not usable; call NewAnalyzer.
type Analyzer struct {
	families map[Category][]*regexp.Regexp
	order    []Category
	quotes   []*regexp.Regexp
	views    []*regexp.Regexp
	timing   []*regexp.Regexp
}

func NewAnalyzer() *Analyzer {
	a := &Analyzer{families: make(map[Category][]*regexp.Regexp)}
	for _, f := range keywordFamilies {
		a.order = append(a.order, f.category)
		a.families[f.category] = sentencePatterns(f.keywords)
	}

	a.quotes = []*regexp.Regexp{
		regexp.MustCompile(`"[^"]*"`),
		regexp.MustCompile(`“[^”]*”`),
		regexp.MustCompile(`.*——.*`),
	}
	for _, name := range quoteMasters {
		a.quotes = append(a.quotes, regexp.MustCompile(`.*`+name+`.*`))
	}
	a.quotes = append(a.quotes, sentencePatterns(famousPeople)...)

	a.views = sentencePatterns(viewWords)
	a.timing = sentencePatterns(timingWords)
	return a
}

// sentencePatterns matches the whole sentence around each keyword. Keywords
// may themselves be patterns, e.g. `\d{6}` for a stock code.
func sentencePatterns(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, regexp.MustCompile(`(?i)[^。！？]*`+kw+`[^。！？]*`))
	}
	return out
}

// AnalyzePage reads one page into a note.
func (a *Analyzer) AnalyzePage(p Page) models.Note {
	c := a.Classify(p.Text)
	return models.Note{
		PageNumber:           p.Num,
		SourceFile:           p.File,
		RawText:              p.Text,
		KeyQuotes:            c[CategoryQuotes],
		InvestmentStrategies: c[CategoryStrategies],
		MentionedStocks:      c[CategoryStocks],
		FinancialMetrics:     c[CategoryFinancial],
		MarketAnalysis:       c[CategoryMarket],
		TechnicalAnalysis:    c[CategoryTechnical],
		RiskWarnings:         c[CategoryRisks],
		InvestmentViews:      c[CategoryViews],
		TimingAdvice:         c[CategoryTiming],
	}
}

// AnalyzeAll analyzes pages in order.
func (a *Analyzer) AnalyzeAll(pages []Page) []models.Note {
	notes := make([]models.Note, 0, len(pages))
	for _, p := range pages {
		notes = append(notes, a.AnalyzePage(p))
	}
	return notes
}

// Classify returns the sentences of text per category. Categories without
// matches are absent from the map.
func (a *Analyzer) Classify(text string) map[Category][]string {
	out := make(map[Category][]string)
	put := func(c Category, v []string) {
		if len(v) > 0 {
			out[c] = v
		}
	}

	for _, c := range a.order {
		put(c, collect(text, a.families[c], trimSet, minKeywordRunes))
	}
	put(CategoryQuotes, collect(text, a.quotes, trimSet, minQuoteRunes))
	put(CategoryViews, collect(text, a.views, " \n\t", minViewRunes))
	put(CategoryTiming, collect(text, a.timing, " \n\t", minViewRunes))
	return out
}

var defaultAnalyzer = NewAnalyzer()

// Classify sorts the sentences of text into strategies, risk warnings,
// quotes and the other categories using the default analyzer.
func Classify(text string) map[Category][]string {
	return defaultAnalyzer.Classify(text)
}

// collect runs every pattern over text and keeps trimmed matches longer than
// minRunes, deduplicated in first-seen order.
func collect(text string, patterns []*regexp.Regexp, cutset string, minRunes int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			m = strings.Trim(m, cutset)
			if utf8.RuneCountInString(m) <= minRunes || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
