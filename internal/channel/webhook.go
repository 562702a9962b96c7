package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"biotrack/internal/domain"
	"biotrack/internal/metrics"
)

// APIStatus reports which upstream credentials are configured. It is
// exposed on the health endpoint so a deploy can be checked without
// sending a message.
type APIStatus struct {
	Telegram bool `json:"telegram"`
	Groq     bool `json:"groq"`
	Gemini   bool `json:"gemini"`
}

// WebhookConfig configures the webhook receiver.
type WebhookConfig struct {
	Port   int
	Path   string // update URL path (default: /webhook)
	Status APIStatus
	Logger *slog.Logger
}

// Webhook receives Telegram updates pushed over HTTP instead of long
// polling. The same mux serves the health check and the metrics
// exposition. Replies still go out through the Telegram sender.
type Webhook struct {
	port   int
	path   string
	status APIStatus
	bus    domain.MessageBus
	logger *slog.Logger
	server *http.Server
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if cfg.Port == 0 {
		cfg.Port = 8443
	}
	return &Webhook{
		port:   cfg.Port,
		path:   cfg.Path,
		status: cfg.Status,
		logger: cfg.Logger,
	}
}

func (w *Webhook) Name() string { return "webhook" }

// Start begins the webhook HTTP server and blocks until ctx is cancelled.
func (w *Webhook) Start(ctx context.Context, bus domain.MessageBus) error {
	w.bus = bus

	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleUpdate)
	mux.HandleFunc("/health", w.handleHealth)
	mux.HandleFunc("/", w.handleHealth)
	mux.Handle("/metrics", metrics.Collector.Handler())

	w.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", w.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	w.logger.Info("webhook server starting", "port", w.port, "path", w.path)

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (w *Webhook) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	msg, ok := convertUpdate(update)
	if !ok {
		rw.WriteHeader(http.StatusOK)
		return
	}

	w.logger.Info("webhook update received",
		"chat_id", msg.ChatID,
		"photos", len(msg.Photos),
		"has_voice", msg.Voice != nil,
	)

	w.bus.Publish(msg)
	rw.WriteHeader(http.StatusOK)
}

func (w *Webhook) handleHealth(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(map[string]any{
		"status":          "ok",
		"service":         "biotrack",
		"apis_configured": w.status,
	})
}
