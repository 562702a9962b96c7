package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"

	"biotrack/internal/domain"
)

const (
	defaultGeminiModel    = "gemini-1.5-flash"
	visionTemperature     = 0.4
	visionMaxOutputTokens = 1024
)

// GeminiConfig configures the vision collaborator.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

// Gemini implements domain.Vision using the Gemini API. It returns itemized
// prose, never schema JSON; the fallback parser owns structuring its output.
type Gemini struct {
	cli    *genai.Client
	model  string
	prompt string
	logger *slog.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}

	return &Gemini{
		cli:    cli,
		model:  cfg.Model,
		prompt: prompts.Vision.Prompt,
		logger: cfg.Logger,
	}, nil
}

// DescribeMeal analyzes a meal photograph and returns the model's prose.
func (g *Gemini) DescribeMeal(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{
			{Text: g.prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		}}},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](visionTemperature),
			MaxOutputTokens: visionMaxOutputTokens,
		},
	)
	if err != nil {
		return "", &domain.CollaboratorError{Op: "vision", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &domain.CollaboratorError{Op: "vision", Err: errors.New("no candidates in response")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	analysis := b.String()

	g.logger.Info("meal photo analyzed",
		"image_bytes", len(image),
		"analysis_len", len(analysis),
	)
	return analysis, nil
}
