package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:          "info",
			Workers:           5,
			AITimeoutS:        30,
			TransportTimeoutS: 10,
		},
		Telegram: TelegramConfig{
			Token:       "${TELEGRAM_BOT_TOKEN}",
			Mode:        "polling",
			WebhookPort: 8000,
			WebhookPath: "/webhook",
			ParseMode:   "Markdown",
		},
		Groq: GroqConfig{
			APIKey:        "${GROQ_API_KEY}",
			APIBase:       "https://api.groq.com/openai/v1",
			ClassifyModel: "gemma2-9b-it",
			ExtractModel:  "llama-3.1-8b-instant",
			WhisperModel:  "whisper-large-v3",
			Language:      "pt",
		},
		Gemini: GeminiConfig{
			APIKey: "${GEMINI_API_KEY}",
			Model:  "gemini-1.5-flash",
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9090",
		},
	}
}
