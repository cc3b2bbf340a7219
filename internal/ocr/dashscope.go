package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"investnotes/internal/utils"
)

const (
	minPixels = 28 * 28 * 4
	maxPixels = 28 * 28 * 8192
)

// DashScopeClient calls the OpenAI compatible chat completions endpoint of
// DashScope with one image and an optional prompt.
type DashScopeClient struct {
	name        string
	BaseURL     string
	APIKey      string
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
	PixelBounds bool
	HTTP        *http.Client
}

type imageURL struct {
	URL       string `json:"url"`
	MinPixels int    `json:"min_pixels,omitempty"`
	MaxPixels int    `json:"max_pixels,omitempty"`
}

type contentPart struct {
	Type     string    `json:"type"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	Text     string    `json:"text,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func newDashScope(name string, cfg utils.OCRConfig) *DashScopeClient {
	return &DashScopeClient{
		name:      name,
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
		HTTP:      &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

// NewVLMax reads the page with the general vision model and a plain
// transcription prompt.
func NewVLMax(cfg utils.OCRConfig) *DashScopeClient {
	c := newDashScope(MethodVLMax, cfg)
	c.Model = cfg.VLMaxModel
	c.Prompt = cfg.Prompt
	c.Temperature = 0.1
	return c
}

// NewVLOCR uses the dedicated OCR model, which takes the image alone.
func NewVLOCR(cfg utils.OCRConfig) *DashScopeClient {
	c := newDashScope(MethodVLOCR, cfg)
	c.Model = cfg.VLOCRModel
	c.PixelBounds = true
	return c
}

// NewOptimizedPrompt uses the general model with a prompt that describes the
// notebook.
func NewOptimizedPrompt(cfg utils.OCRConfig) *DashScopeClient {
	c := newDashScope(MethodOptimized, cfg)
	c.Model = cfg.VLMaxModel
	c.Prompt = cfg.NotebookPrompt
	return c
}

func (c *DashScopeClient) Name() string { return c.name }

func (c *DashScopeClient) buildRequest(img Image) chatRequest {
	iu := &imageURL{
		URL: fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)),
	}
	if c.PixelBounds {
		iu.MinPixels = minPixels
		iu.MaxPixels = maxPixels
	}
	parts := []contentPart{{Type: "image_url", ImageURL: iu}}
	if c.Prompt != "" {
		parts = append(parts, contentPart{Type: "text", Text: c.Prompt})
	}
	return chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

func (c *DashScopeClient) Recognize(ctx context.Context, img Image) (string, error) {
	payload, err := json.Marshal(c.buildRequest(img))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResult
	}
	text := CleanText(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
