package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"biotrack/internal/bus"
	"biotrack/internal/channel"
	"biotrack/internal/config"
	"biotrack/internal/metrics"
	"biotrack/internal/pipeline"
	"biotrack/internal/provider"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "biotrack",
		Short: "Biotrack: chat bot that turns meal, workout and hydration messages into structured records",
		Long:  "Biotrack receives text, voice and photo messages over Telegram and extracts structured meal, workout and hydration data from them.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.biotrack/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if configPath != "" {
				cfgPath = configPath
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("biotrack v%s\n", version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE:  runServe,
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env first so ${VAR} expansion in the config file can see it.
	_ = godotenv.Load()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = newLogger(cfg.General.LogLevel)

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured (set TELEGRAM_BOT_TOKEN or telegram.token)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	groq, err := provider.NewGroq(provider.GroqConfig{
		APIKey:        cfg.Groq.APIKey,
		APIBase:       cfg.Groq.APIBase,
		ClassifyModel: cfg.Groq.ClassifyModel,
		ExtractModel:  cfg.Groq.ExtractModel,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("groq provider: %w", err)
	}

	whisper := provider.NewWhisper(provider.WhisperConfig{
		APIKey:   cfg.Groq.APIKey,
		APIBase:  cfg.Groq.APIBase,
		Model:    cfg.Groq.WhisperModel,
		Language: cfg.Groq.Language,
		Logger:   logger,
	})

	gemini, err := provider.NewGemini(ctx, provider.GeminiConfig{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("gemini provider: %w", err)
	}

	tg := channel.NewTelegram(channel.TelegramConfig{
		Token:            cfg.Telegram.Token,
		AllowFrom:        cfg.Telegram.AllowFrom,
		ParseMode:        cfg.Telegram.ParseMode,
		TransportTimeout: cfg.TransportTimeout(),
		Logger:           logger,
	})

	pipe := pipeline.New(pipeline.Config{
		Dispatcher: pipeline.NewDispatcher(pipeline.DispatcherConfig{
			Classifier: groq,
			Extractor:  groq,
			AITimeout:  cfg.AITimeout(),
			Logger:     logger,
		}),
		Transcriber:      whisper,
		Vision:           gemini,
		Media:            tg,
		Bus:              messageBus,
		AITimeout:        cfg.AITimeout(),
		TransportTimeout: cfg.TransportTimeout(),
		Workers:          cfg.General.Workers,
		StatusText:       statusText(cfg),
		Logger:           logger,
	})
	go pipe.Run(ctx)

	if cfg.Telegram.Mode == "webhook" {
		if err := tg.StartSender(messageBus); err != nil {
			return err
		}
		hook := channel.NewWebhook(channel.WebhookConfig{
			Port:   cfg.Telegram.WebhookPort,
			Path:   cfg.Telegram.WebhookPath,
			Status: apiStatus(cfg),
			Logger: logger,
		})
		return hook.Start(ctx, messageBus)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.ListenAddr)
	}
	return tg.Start(ctx, messageBus)
}

func apiStatus(cfg *config.Config) channel.APIStatus {
	return channel.APIStatus{
		Telegram: cfg.Telegram.Token != "",
		Groq:     cfg.Groq.APIKey != "",
		Gemini:   cfg.Gemini.APIKey != "",
	}
}

// statusText builds the /status reply from runtime configuration.
func statusText(cfg *config.Config) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	var b strings.Builder
	b.WriteString("📊 *Status do Biotrack*\n\n")
	fmt.Fprintf(&b, "Versão: %s\n", version)
	fmt.Fprintf(&b, "Telegram: %s\n", mark(cfg.Telegram.Token != ""))
	fmt.Fprintf(&b, "Groq: %s\n", mark(cfg.Groq.APIKey != ""))
	fmt.Fprintf(&b, "Gemini: %s\n", mark(cfg.Gemini.APIKey != ""))
	fmt.Fprintf(&b, "Workers: %d\n", cfg.General.Workers)
	return b.String()
}

// serveMetrics exposes the Prometheus endpoint in polling mode, where no
// webhook mux exists to mount it on. The exposition path is fixed at
// /metrics; listenAddr is the bind address.
func serveMetrics(ctx context.Context, listenAddr string) {
	if listenAddr == "" {
		listenAddr = ":9090"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Collector.Handler())

	server := &http.Server{Addr: listenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server starting", "addr", listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "err", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
