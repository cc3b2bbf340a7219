package ocr

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"investnotes/internal/utils"
)

// GeminiClient reads pages with a Gemini vision model.
type GeminiClient struct {
	client    *genai.Client
	model     string
	prompt    string
	maxTokens int32
}

func NewGeminiClient(ctx context.Context, cfg utils.OCRConfig) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:    client,
		model:     cfg.GeminiModel,
		prompt:    cfg.NotebookPrompt,
		maxTokens: int32(cfg.MaxTokens),
	}, nil
}

func (g *GeminiClient) Name() string { return MethodGemini }

func (g *GeminiClient) Recognize(ctx context.Context, img Image) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(img.Data, img.MIMEType),
		genai.NewPartFromText(g.prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	text := CleanText(resp.Text())
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
