package notes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"investnotes/models"
)

const (
	QuoteMasters    = "masters"
	QuoteStrategy   = "strategy"
	QuotePhilosophy = "philosophy"

	quoteSource   = "老刘投资笔记"
	minQuoteLen   = 10
	quoteVersion  = "1.0.0"
	rotationHours = 24
)

// QuoteCategories lists the quote categories in display order.
var QuoteCategories = []string{QuoteMasters, QuoteStrategy, QuotePhilosophy}

var quoteCategoryInfo = map[string]models.QuoteCategory{
	QuoteMasters:    {Name: "投资大师", Icon: "🎯", Description: "汲取投资大师的智慧结晶"},
	QuoteStrategy:   {Name: "投资策略", Icon: "📈", Description: "实用的投资策略和技巧"},
	QuotePhilosophy: {Name: "市场哲学", Icon: "💭", Description: "深刻的市场洞察和人生智慧"},
}

var (
	masterKeywords = []string{
		"巴菲特", "格雷厄姆", "芒格", "索罗斯", "利弗莫尔",
		"杨德龙", "任泽平", "段永平", "天永平",
	}
	strategyKeywords = []string{
		"跟着游资", "跟着热点", "跟着龙头", "人弃我取", "人取我弃",
		"价值投资", "成长投资", "买入", "卖出", "持有", "择时",
	}
	philosophyKeywords = []string{
		"人生", "智慧", "哲学", "道理", "规律", "本质", "悲伤", "聪明",
	}
)

var (
	quoteSectionRe = regexp.MustCompile(`(?s)## 💎 核心投资金句汇总(.*?)## 📈`)
	quoteItemRe    = regexp.MustCompile(`(?m)^(\d+)\.\s*`)
)

// ClassifyQuote assigns a quote to a category. A master's name wins,
// otherwise the category with more keyword hits, with ties and misses going
// to strategy.
func ClassifyQuote(text string) string {
	if containsAny(text, masterKeywords) {
		return QuoteMasters
	}
	strategy := countKeywords(text, strategyKeywords)
	philosophy := countKeywords(text, philosophyKeywords)
	if philosophy > strategy {
		return QuotePhilosophy
	}
	return QuoteStrategy
}

func countKeywords(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

// QuoteExtractor reads the numbered quote list back out of a structured
// report written by WriteReport.
type QuoteExtractor struct{}

func NewQuoteExtractor() *QuoteExtractor {
	return &QuoteExtractor{}
}

// Extract returns the classified quotes of the report's quote section.
// Items of ten characters or fewer are dropped.
func (e *QuoteExtractor) Extract(report string) []models.Quote {
	section := quoteSectionRe.FindStringSubmatch(report)
	if section == nil {
		return nil
	}
	body := section[1]

	var quotes []models.Quote
	locs := quoteItemRe.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := stripSeparators(body[loc[1]:end])
		if utf8.RuneCountInString(text) <= minQuoteLen {
			continue
		}
		index, _ := strconv.Atoi(body[loc[2]:loc[3]])
		quotes = append(quotes, models.Quote{
			ID:       fmt.Sprintf("n%03d", index),
			Content:  text,
			Author:   quoteSource,
			Tags:     []string{"笔记摘录"},
			Category: ClassifyQuote(text),
		})
	}
	return quotes
}

func stripSeparators(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "---") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Curated returns the hand-picked quotes shipped with the mini-program.
func Curated() []models.Quote {
	q := func(id, content, author string, page int, category string, tags ...string) models.Quote {
		return models.Quote{ID: id, Content: content, Author: author, SourcePage: page, Tags: tags, Category: category}
	}
	return []models.Quote{
		q("m001", "败于原价，死于抄底，终于杠杆", "格雷厄姆", 1, QuoteMasters, "风险控制", "经典名言"),
		q("m002", "我们宁愿以低廉的价格买入一个伟大的公司，也不愿以一个伟大的价格买入一个普通的公司", "巴菲特理念", 2, QuoteMasters, "价值投资", "选股原则"),
		q("m003", "投机之王利弗莫尔说：永远保本金，随时将获利的半数锁入保险箱", "利弗莫尔", 18, QuoteMasters, "资金管理", "风险控制"),
		q("m004", "新手死于追高，老手死于抄底，高手死于杠杆", "华尔街名言", 20, QuoteMasters, "市场规律", "风险警示"),
		q("m005", "投资不需要多大脑子。90%的人都错了，越聪明越容易赔钱", "巴菲特", 23, QuoteMasters, "投资心理", "反向思维"),

		q("s001", "人弃我取，人取我弃，八字诀做则与众不同，只有10%的人在股市赚到钱", "杨德龙", 2, QuoteStrategy, "逆向投资", "市场哲学"),
		q("s002", "要想股市里赚钱则必须一定是跟着游资走，跟着热点走，跟着龙头走", "老刘总结", 1, QuoteStrategy, "短线策略", "市场跟随"),
		q("s003", "价格严重超跌才是买入的时机，不是合理价格买入的时机", "段永平理念", 2, QuoteStrategy, "择时策略", "买入时机"),
		q("s004", "冷静时买入，疯狂时卖出，如别人所不知，为别人所不为", "投资哲学", 3, QuoteStrategy, "情绪控制", "反向操作"),
		q("s005", "牛市做突破（买入），熊市做回调（超跌买入）", "市场策略", 17, QuoteStrategy, "市场策略", "买卖时机"),
		q("s006", "新手看价，高手看量，老手看势", "交易心得", 18, QuoteStrategy, "技术分析", "投资进阶"),

		q("p001", "人生最大的悲伤，莫过于一辈子的聪明都耗在战术", "投资哲学", 3, QuotePhilosophy, "人生智慧", "战略思维"),
		q("p002", "弃小智而用大智，图大谋而弃小作为，以实业的心态做金融", "投资理念", 3, QuotePhilosophy, "格局思维", "投资心态"),
		q("p003", "最好的投资，往往都是在最差的时候做出的。而最差的投资，基本上都是在繁荣极盛的背景下进行的", "市场哲学", 20, QuotePhilosophy, "逆向思维", "市场周期"),
		q("p004", "股市行情一般四个阶段：在绝望中产生，在犹豫中上涨，在疯狂中见顶，在希望中下跌", "市场规律", 20, QuotePhilosophy, "市场周期", "情绪周期"),
		q("p005", "投资大众的趋势永远是错误的，要与众不同，做另类的人", "巴鲁克理念", 21, QuotePhilosophy, "独立思考", "反向投资"),
		q("p006", "我们没有比别人更聪明，但我们必须比别人更有自制力", "巴菲特", 24, QuotePhilosophy, "投资心理", "自我控制"),
	}
}

// BuildBook groups quotes by category into the laoliu_quotes.json layout.
// Quotes with an unknown category are filed under strategy.
func BuildBook(quotes []models.Quote, now time.Time) models.QuoteBook {
	book := models.QuoteBook{
		Version:     quoteVersion,
		LastUpdated: now.Format("2006-01-02"),
		TotalQuotes: len(quotes),
		DailyRotation: models.DailyRotation{
			UpdateInterval: rotationHours,
			LastUpdate:     now.Format("2006-01-02 15:04:05"),
		},
		Categories: make(map[string]models.QuoteCategory, len(QuoteCategories)),
	}

	for _, key := range QuoteCategories {
		c := quoteCategoryInfo[key]
		c.Quotes = []models.Quote{}
		book.Categories[key] = c
	}
	for _, q := range quotes {
		key := q.Category
		if _, ok := book.Categories[key]; !ok {
			key = QuoteStrategy
			q.Category = key
		}
		c := book.Categories[key]
		c.Quotes = append(c.Quotes, q)
		c.Count = len(c.Quotes)
		book.Categories[key] = c
	}
	return book
}
