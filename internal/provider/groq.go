package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"biotrack/internal/domain"
)

const (
	defaultGroqBase      = "https://api.groq.com/openai/v1"
	defaultClassifyModel = "gemma2-9b-it"
	defaultExtractModel  = "llama-3.1-8b-instant"

	extractTemperature = 0.1
	extractMaxTokens   = 1000
)

// GroqConfig configures the Groq chat-completion collaborator.
type GroqConfig struct {
	APIKey        string
	APIBase       string
	ClassifyModel string
	ExtractModel  string
	Logger        *slog.Logger
}

// Groq implements domain.Classifier and domain.Extractor on top of the
// Groq OpenAI-compatible chat API.
type Groq struct {
	client        *openai.Client
	classifyModel string
	extractModel  string
	prompts       *PromptSpec
	logger        *slog.Logger
}

func NewGroq(cfg GroqConfig) (*Groq, error) {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultGroqBase
	}
	if cfg.ClassifyModel == "" {
		cfg.ClassifyModel = defaultClassifyModel
	}
	if cfg.ExtractModel == "" {
		cfg.ExtractModel = defaultExtractModel
	}

	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.APIBase

	return &Groq{
		client:        openai.NewClientWithConfig(clientCfg),
		classifyModel: cfg.ClassifyModel,
		extractModel:  cfg.ExtractModel,
		prompts:       prompts,
		logger:        cfg.Logger,
	}, nil
}

// Healthy checks that the Groq API is reachable with the configured key.
func (g *Groq) Healthy(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("groq not reachable: %w", err)
	}
	return nil
}

// Classify labels the text with one of the closed intent set. The model
// answers with a single word; anything else is coerced to other.
func (g *Groq) Classify(ctx context.Context, text string) (domain.IntentLabel, error) {
	maxTokens := g.prompts.Classify.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 10
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.classifyModel,
		Temperature: extractTemperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: g.prompts.Classify.Render(text)},
		},
	})
	if err != nil {
		return domain.IntentOther, &domain.CollaboratorError{Op: "classify", Err: err}
	}
	if len(resp.Choices) == 0 {
		return domain.IntentOther, &domain.CollaboratorError{Op: "classify", Err: errors.New("no choices in response")}
	}

	label := domain.ParseIntent(resp.Choices[0].Message.Content)
	g.logger.Debug("intent classified",
		"label", label,
		"raw", resp.Choices[0].Message.Content,
		"text_len", len(text),
	)
	return label, nil
}

func (g *Groq) ExtractMeal(ctx context.Context, text string) (*domain.MealRecord, error) {
	var rec domain.MealRecord
	if err := g.extractJSON(ctx, g.prompts.Meal.Render(text), "meal", &rec); err != nil {
		return nil, err
	}
	if rec.Items == nil {
		return nil, &domain.MalformedExtraction{Schema: "meal", Err: errors.New("missing items field")}
	}
	for i := range rec.Items {
		if rec.Items[i].QuantityGrams < 0 {
			rec.Items[i].QuantityGrams = 0
		}
	}
	if rec.TotalCalories < 0 {
		rec.TotalCalories = 0
	}
	rec.RawDescription = text
	return &rec, nil
}

func (g *Groq) ExtractWorkout(ctx context.Context, text string) (*domain.WorkoutRecord, error) {
	var rec domain.WorkoutRecord
	if err := g.extractJSON(ctx, g.prompts.Workout.Render(text), "workout", &rec); err != nil {
		return nil, err
	}
	if rec.Exercises == nil {
		return nil, &domain.MalformedExtraction{Schema: "workout", Err: errors.New("missing exercises field")}
	}
	return &rec, nil
}

func (g *Groq) ExtractHydration(ctx context.Context, text string) (*domain.HydrationRecord, error) {
	var rec domain.HydrationRecord
	if err := g.extractJSON(ctx, g.prompts.Hydration.Render(text), "hydration", &rec); err != nil {
		return nil, err
	}
	if rec.VolumeMl < 0 {
		return nil, &domain.MalformedExtraction{Schema: "hydration", Err: errors.New("negative volume")}
	}
	return &rec, nil
}

// extractJSON requests a JSON-mode completion and decodes it into out.
// All-or-nothing: a payload that does not decode is a MalformedExtraction,
// never a partial record.
func (g *Groq) extractJSON(ctx context.Context, prompt, schema string, out any) error {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.extractModel,
		Temperature: extractTemperature,
		MaxTokens:   extractMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return &domain.CollaboratorError{Op: "extract " + schema, Err: err}
	}
	if len(resp.Choices) == 0 {
		return &domain.CollaboratorError{Op: "extract " + schema, Err: errors.New("no choices in response")}
	}

	raw := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		g.logger.Warn("extraction payload did not match schema",
			"schema", schema,
			"err", err,
			"payload", truncateForLog(raw, 200),
		)
		return &domain.MalformedExtraction{Schema: schema, Raw: truncateForLog(raw, 200), Err: err}
	}
	return nil
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
