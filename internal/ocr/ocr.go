// Package ocr transcribes notebook photos with hosted vision models. Each
// page is read by several methods and the most complete transcription wins.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyResult is returned when a model answers with no text.
var ErrEmptyResult = errors.New("ocr: empty result")

// Method names, in the order pages are processed.
const (
	MethodVLMax     = "qwen-vl-max"
	MethodVLOCR     = "qwen-vl-ocr"
	MethodOptimized = "optimized-prompt"
	MethodGemini    = "gemini"

	// AllFailed is recorded as the best method when no method produced text.
	AllFailed = "所有方法都失败"
)

// Image is one photo ready to be sent to a model.
type Image struct {
	Path     string
	Data     []byte
	MIMEType string
}

func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = "image/jpeg"
	}
	return Image{Path: path, Data: data, MIMEType: mt}, nil
}

// Recognizer turns an image into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img Image) (string, error)
}

// FailureText is the placeholder stored for a method that failed.
func FailureText(method string, err error) string {
	return fmt.Sprintf("[%s识别失败: %v]", method, err)
}

// IsFailure reports whether text is a failure placeholder.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, "[")
}

var (
	// Only real markup counts: a line break or a closing tag of a known
	// element. Comparisons such as "股价<MA20" must survive untouched.
	htmlElement = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|span|table|tr|td|th|li|ul|ol|pre|code|h[1-6])>`)
	brTag       = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</tr>`)
)

// CleanText trims model output and strips HTML markup that some models wrap
// around their answer.
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	if !htmlElement.MatchString(text) {
		return text
	}
	text = brTag.ReplaceAllString(text, "\n")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	return strings.TrimSpace(doc.Text())
}
