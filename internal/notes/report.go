package notes

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"investnotes/models"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// Totals counts distinct entries per category across all notes.
type Totals struct {
	Pages      int
	Quotes     int
	Strategies int
	Views      int
	Timing     int
	Stocks     int
	Financial  int
	Technical  int
	Risks      int
}

func Summarize(notes []models.Note) Totals {
	pick := func(f func(models.Note) []string) int {
		return len(unique(notes, f))
	}
	return Totals{
		Pages:      len(notes),
		Quotes:     pick(func(n models.Note) []string { return n.KeyQuotes }),
		Strategies: pick(func(n models.Note) []string { return n.InvestmentStrategies }),
		Views:      pick(func(n models.Note) []string { return n.InvestmentViews }),
		Timing:     pick(func(n models.Note) []string { return n.TimingAdvice }),
		Stocks:     pick(func(n models.Note) []string { return n.MentionedStocks }),
		Financial:  pick(func(n models.Note) []string { return n.FinancialMetrics }),
		Technical:  pick(func(n models.Note) []string { return n.TechnicalAnalysis }),
		Risks:      pick(func(n models.Note) []string { return n.RiskWarnings }),
	}
}

// unique gathers one field of every note, keeping the first occurrence of
// each entry.
func unique(notes []models.Note, field func(models.Note) []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range notes {
		for _, v := range field(n) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// WriteReport writes the structured Markdown document. The quote section it
// writes is what QuoteExtractor reads back.
func WriteReport(w io.Writer, notes []models.Note, generated time.Time) error {
	bw := bufio.NewWriter(w)
	t := Summarize(notes)

	fmt.Fprintf(bw, "# 老刘投资笔记 - 完整文档2：结构化投资信息提取\n")
	fmt.Fprintf(bw, "# 生成时间: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "# 说明：基于%d页完整内容的结构化分析结果\n", t.Pages)
	fmt.Fprintf(bw, "# 数据来源：多重OCR验证的最佳识别结果\n\n")
	fmt.Fprintf(bw, "%s\n\n", heavyRule)

	fmt.Fprintf(bw, "## 📊 内容统计汇总\n\n")
	fmt.Fprintf(bw, "- **总页数**: %d\n", t.Pages)
	fmt.Fprintf(bw, "- **投资金句**: %d\n", t.Quotes)
	fmt.Fprintf(bw, "- **投资策略**: %d\n", t.Strategies)
	fmt.Fprintf(bw, "- **投资观点**: %d\n", t.Views)
	fmt.Fprintf(bw, "- **择时建议**: %d\n", t.Timing)
	fmt.Fprintf(bw, "- **提及股票**: %d\n", t.Stocks)
	fmt.Fprintf(bw, "- **财务指标**: %d\n", t.Financial)
	fmt.Fprintf(bw, "- **技术分析**: %d\n", t.Technical)
	fmt.Fprintf(bw, "- **风险提示**: %d\n\n", t.Risks)

	writeNumbered(bw, "## 💎 核心投资金句汇总", unique(notes, func(n models.Note) []string { return n.KeyQuotes }))
	writeNumbered(bw, "## 📈 投资策略汇总", unique(notes, func(n models.Note) []string { return n.InvestmentStrategies }))
	writeNumbered(bw, "## 💭 核心投资观点", unique(notes, func(n models.Note) []string { return n.InvestmentViews }))

	fmt.Fprintf(bw, "## 📄 分页详细分析\n\n")
	for _, n := range notes {
		fmt.Fprintf(bw, "### 第%d页 - %s\n\n", n.PageNumber, n.SourceFile)
		writeBullets(bw, "**🎯 投资金句**", n.KeyQuotes)
		writeBullets(bw, "**💭 投资观点**", n.InvestmentViews)
		writeBullets(bw, "**📊 投资策略**", n.InvestmentStrategies)
		writeBullets(bw, "**🏢 相关股票**", n.MentionedStocks)
		writeBullets(bw, "**💰 财务指标**", n.FinancialMetrics)
		writeBullets(bw, "**📉 技术分析**", n.TechnicalAnalysis)
		writeBullets(bw, "**🌍 市场判断**", n.MarketAnalysis)
		writeBullets(bw, "**⏰ 择时建议**", n.TimingAdvice)
		writeBullets(bw, "**⚠️ 风险提示**", n.RiskWarnings)
		fmt.Fprintf(bw, "%s\n\n", lightRule)
	}
	return bw.Flush()
}

func writeNumbered(w io.Writer, heading string, items []string) {
	fmt.Fprintf(w, "%s\n\n", heading)
	for i, item := range items {
		fmt.Fprintf(w, "%d. %s\n\n", i+1, item)
	}
	fmt.Fprintf(w, "%s\n\n", lightRule)
}

func writeBullets(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintf(w, "\n")
}
