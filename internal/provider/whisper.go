package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"biotrack/internal/domain"
)

const defaultWhisperModel = "whisper-large-v3"

// WhisperConfig configures the speech-to-text collaborator. It talks to
// any OpenAI-compatible transcription endpoint; the Groq one by default.
type WhisperConfig struct {
	APIKey   string
	APIBase  string
	Model    string
	Language string // optional: ISO-639-1 language code
	Logger   *slog.Logger
}

// Whisper implements domain.Transcriber.
type Whisper struct {
	client   *openai.Client
	model    string
	language string
	logger   *slog.Logger
}

func NewWhisper(cfg WhisperConfig) *Whisper {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultGroqBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.APIBase

	return &Whisper{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: cfg.Language,
		logger:   cfg.Logger,
	}
}

// Transcribe converts audio to text. filename should carry the extension
// (e.g. "voice.ogg") so the API can sniff the container format.
func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", &domain.CollaboratorError{Op: "transcribe", Err: fmt.Errorf("whisper API: %w", err)}
	}

	w.logger.Info("transcription complete", "text_len", len(resp.Text))
	return resp.Text, nil
}
