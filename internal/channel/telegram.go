// Package channel connects chat transports to the message bus. Each
// channel converts platform updates into domain.InboundMessage and
// delivers rendered replies back to the platform.
package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"biotrack/internal/domain"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
	telegramMaxMediaBytes  = 20 << 20
)

// Telegram is the Telegram transport. It receives updates by long
// polling, publishes them inbound, and sends rendered replies back. It
// also implements domain.MediaResolver for photo and voice downloads.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed user IDs, empty = allow all
	parseMode string

	bot        *tgbotapi.BotAPI
	bus        domain.MessageBus
	httpClient *http.Client
	logger     *slog.Logger
}

type TelegramConfig struct {
	Token            string
	AllowFrom        []string
	ParseMode        string
	TransportTimeout time.Duration
	Logger           *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "Markdown"
	}
	if cfg.TransportTimeout <= 0 {
		cfg.TransportTimeout = 10 * time.Second
	}
	return &Telegram{
		token:      cfg.Token,
		allowFrom:  allowed,
		parseMode:  cfg.ParseMode,
		httpClient: &http.Client{Timeout: cfg.TransportTimeout},
		logger:     cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins polling for updates. It blocks
// until ctx is cancelled or the update stream closes.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	bus.OnOutbound("telegram", func(msg domain.OutboundMessage) {
		chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
		if err != nil {
			t.logger.Error("invalid chat ID for telegram outbound", "chatID", msg.ChatID, "err", err)
			return
		}
		t.sendMessage(chatID, msg.Content)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

// StartSender connects to Telegram for outbound delivery only, without
// polling. Used in webhook mode, where updates arrive over HTTP.
func (t *Telegram) StartSender(bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram sender connected", "username", bot.Self.UserName)

	bus.OnOutbound("telegram", func(msg domain.OutboundMessage) {
		chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
		if err != nil {
			t.logger.Error("invalid chat ID for telegram outbound", "chatID", msg.ChatID, "err", err)
			return
		}
		t.sendMessage(chatID, msg.Content)
	})
	return nil
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	msg, ok := convertUpdate(update)
	if !ok {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	if !t.isAllowed(from.ID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", from.ID,
			"username", from.UserName,
		)
		t.sendMessage(chatID, "⛔ Usuário não autorizado.")
		return
	}

	t.logger.Info("telegram update received",
		"user_id", from.ID,
		"chat_id", chatID,
		"photos", len(msg.Photos),
		"has_voice", msg.Voice != nil,
	)

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Request(typing)

	t.bus.Publish(msg)
}

// convertUpdate maps a Telegram update onto the inbound message model.
// Photo sizes keep Telegram's ascending-resolution order; a caption on
// media rides along as Text. Updates without a usable message are dropped.
func convertUpdate(update tgbotapi.Update) (domain.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return domain.InboundMessage{}, false
	}

	msg := domain.InboundMessage{
		Channel:   "telegram",
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		SenderID:  strconv.FormatInt(m.From.ID, 10),
		Text:      m.Text,
		Timestamp: time.Unix(int64(m.Date), 0),
	}

	if len(m.Photo) > 0 {
		for _, p := range m.Photo {
			msg.Photos = append(msg.Photos, domain.MediaRef(p.FileID))
		}
		msg.Text = m.Caption
	}
	if m.Voice != nil {
		msg.Voice = &domain.VoiceRef{
			Ref:      domain.MediaRef(m.Voice.FileID),
			Duration: m.Voice.Duration,
		}
	}
	if m.Audio != nil && msg.Voice == nil {
		msg.Voice = &domain.VoiceRef{
			Ref:      domain.MediaRef(m.Audio.FileID),
			Duration: m.Audio.Duration,
		}
	}

	if msg.Text == "" && msg.Voice == nil && len(msg.Photos) == 0 {
		return domain.InboundMessage{}, false
	}
	return msg, true
}

// Resolve downloads the bytes behind a Telegram file ID.
func (t *Telegram) Resolve(ctx context.Context, ref domain.MediaRef) ([]byte, error) {
	url, err := t.bot.GetFileDirectURL(string(ref))
	if err != nil {
		return nil, fmt.Errorf("telegram file lookup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram file request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram file download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, telegramMaxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram file read: %w", err)
	}
	return data, nil
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Telegram) sendMessage(chatID int64, text string) {
	t.sendChunk(chatID, truncateMessage(text, telegramMaxMsgLen))
}

// truncateMessage applies the hard per-message cutoff, cutting at a line
// boundary when one falls in the second half of the budget.
func truncateMessage(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max-3])
	if idx := strings.LastIndex(cut, "\n"); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// sendChunk sends one message with retry and rate limit handling: try the
// configured parse mode first, fall back to plain text on a Markdown parse
// error, back off on transient failures.
func (t *Telegram) sendChunk(chatID int64, text string) {
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		if attempt == 0 && t.parseMode != "" {
			msg.ParseMode = t.parseMode
		}

		_, err := t.bot.Send(msg)
		if err == nil {
			return
		}

		errStr := err.Error()

		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		if attempt == 0 && msg.ParseMode != "" &&
			strings.Contains(errStr, "can't parse entities") {
			t.logger.Warn("telegram markdown parse error, retrying as plain text",
				"err", err, "parseMode", t.parseMode,
			)
			plainMsg := tgbotapi.NewMessage(chatID, text)
			if _, err2 := t.bot.Send(plainMsg); err2 == nil {
				return
			}
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "err", err, "attempts", telegramMaxSendRetries+1)
	}
}
