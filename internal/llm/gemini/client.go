// Package gemini adapts the Google Gen AI SDK to llm.VisionModel.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/affidavit-tracker/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

// Config for the Gemini vision client.
type Config struct {
	APIKey      string // if empty, falls back to env GEMINI_API_KEY
	Model       string // default gemini-2.5-flash
	Temperature float32
}

// contentGenerator is the slice of *genai.Models the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	models contentGenerator
	logger *slog.Logger
}

var _ llm.VisionModel = (*Client)(nil)

// NewClient builds a Gemini API backed client. The SDK client is created once
// and reused for every call.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	logger.Info("llm.gemini.client_ready", "model", cfg.Model)
	return &Client{cfg: cfg, models: gc.Models, logger: logger}, nil
}

// Generate sends the prompt followed by the inline page image and returns the
// concatenated text parts of the reply.
func (c *Client) Generate(ctx context.Context, prompt string, img llm.Image) (string, error) {
	start := time.Now()
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				genai.NewPartFromText(prompt),
				genai.NewPartFromBytes(img.Data, mime),
			},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate (model: %s): %w", c.cfg.Model, err)
	}
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}

	text := resp.Text()
	c.logger.Debug("llm.gemini.ok",
		"model", c.cfg.Model,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
