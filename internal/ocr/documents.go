package ocr

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"investnotes/models"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
	shortRule = strings.Repeat("-", 40)
)

// WriteRawDocument writes the best transcription of every page under a
// "## 第N页 - file" heading. The notes parser reads this layout back.
func WriteRawDocument(w io.Writer, pages []models.PageResult, generated time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# 老刘投资笔记 - 完整文档1：原始OCR文字提取结果\n")
	fmt.Fprintf(bw, "# 生成时间: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "# 说明：本文档为老刘投资笔记手写内容的完整OCR识别结果\n")
	fmt.Fprintf(bw, "# 处理方法：%s\n", strings.Join(methodsUsed(pages), " + "))
	fmt.Fprintf(bw, "# 文件总数：%d张图片\n\n", len(pages))
	fmt.Fprintf(bw, "%s\n\n", heavyRule)

	for _, p := range pages {
		fmt.Fprintf(bw, "## 第%d页 - %s\n", p.PageNum, p.Filename)
		fmt.Fprintf(bw, "### 最佳识别方法: %s\n\n", p.BestMethod)
		fmt.Fprintf(bw, "%s\n\n", p.BestText)
		fmt.Fprintf(bw, "%s\n\n", lightRule)
	}
	return bw.Flush()
}

// WriteComparisonDocument lists every method's output per page.
func WriteComparisonDocument(w io.Writer, pages []models.PageResult, generated time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# 老刘投资笔记 - OCR方法比对文档\n")
	fmt.Fprintf(bw, "# 生成时间: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "# 说明：多种OCR方法的详细比对结果\n\n")
	fmt.Fprintf(bw, "%s\n\n", heavyRule)

	for _, p := range pages {
		fmt.Fprintf(bw, "## 第%d页 - %s\n\n", p.PageNum, p.Filename)
		for _, m := range orderedMethods(p) {
			text := p.Results[m]
			fmt.Fprintf(bw, "### %s 结果:\n", m)
			fmt.Fprintf(bw, "长度: %d 字符\n", utf8.RuneCountInString(text))
			fmt.Fprintf(bw, "%s\n\n", text)
			fmt.Fprintf(bw, "%s\n", shortRule)
		}
		fmt.Fprintf(bw, "**最佳选择**: %s\n\n", p.BestMethod)
		fmt.Fprintf(bw, "%s\n\n", heavyRule)
	}
	return bw.Flush()
}

// orderedMethods falls back to sorted keys for results loaded without a
// method order.
func orderedMethods(p models.PageResult) []string {
	if len(p.Methods) == len(p.Results) {
		return p.Methods
	}
	keys := make([]string, 0, len(p.Results))
	for k := range p.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func methodsUsed(pages []models.PageResult) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range pages {
		for _, m := range orderedMethods(p) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// MethodCount is how often a method produced the best result.
type MethodCount struct {
	Method string
	Count  int
}

type Stats struct {
	Total   int
	Success int
	Rate    float64
	Best    []MethodCount
}

// ComputeStats summarises a run. A page counts as a success when its best
// text is not a failure placeholder.
func ComputeStats(pages []models.PageResult) Stats {
	s := Stats{Total: len(pages)}
	counts := map[string]int{}
	for _, p := range pages {
		if !IsFailure(p.BestText) {
			s.Success++
		}
		counts[p.BestMethod]++
	}
	if s.Total > 0 {
		s.Rate = float64(s.Success) / float64(s.Total) * 100
	}
	for m, c := range counts {
		s.Best = append(s.Best, MethodCount{Method: m, Count: c})
	}
	sort.Slice(s.Best, func(i, j int) bool {
		if s.Best[i].Count != s.Best[j].Count {
			return s.Best[i].Count > s.Best[j].Count
		}
		return s.Best[i].Method < s.Best[j].Method
	})
	return s
}

func (s Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "总页数: %d\n成功处理: %d\n成功率: %.1f%%\n", s.Total, s.Success, s.Rate)
	for _, mc := range s.Best {
		pct := 0.0
		if s.Total > 0 {
			pct = float64(mc.Count) / float64(s.Total) * 100
		}
		fmt.Fprintf(&sb, "  %s: %d 页 (%.1f%%)\n", mc.Method, mc.Count, pct)
	}
	return sb.String()
}
