// Package notes turns the transcribed notebook into structured investment
// information: per-page keyword analysis, extracted trading rules and the
// quote collection shown in the mini-program.
package notes

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoPages = errors.New("no pages found in document")

var pageHeader = regexp.MustCompile(`## 第(\d+)页 - ([^\n]+)`)

// Page is one page of the raw OCR document with headings and separators
// removed.
type Page struct {
	Num  int
	File string
	Text string
}

// ParseDocument splits a raw OCR document on its "## 第N页 - file" headings.
// Pages whose body is empty or starts with a separator are skipped.
func ParseDocument(doc string) ([]Page, error) {
	locs := pageHeader.FindAllStringSubmatchIndex(doc, -1)
	if len(locs) == 0 {
		return nil, ErrNoPages
	}

	var pages []Page
	for i, loc := range locs {
		end := len(doc)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		num, err := strconv.Atoi(doc[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		body := strings.TrimSpace(doc[loc[1]:end])
		if body == "" || strings.HasPrefix(body, "--") {
			continue
		}
		text := cleanBody(body)
		if text == "" {
			continue
		}
		pages = append(pages, Page{
			Num:  num,
			File: strings.TrimSpace(doc[loc[4]:loc[5]]),
			Text: text,
		})
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	return pages, nil
}

// ParseFile reads and parses the raw OCR document at path.
func ParseFile(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(string(data))
}

// cleanBody drops heading lines such as "### 最佳识别方法", separator lines
// and method labels, keeping only transcribed text.
func cleanBody(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "="):
		case strings.HasPrefix(line, "识别方法"):
		default:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
