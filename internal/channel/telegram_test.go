package channel

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"biotrack/internal/domain"
)

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: 100},
		Date: 1700000000,
	}
}

func TestConvertUpdate_Text(t *testing.T) {
	m := baseMessage()
	m.Text = "almocei arroz"

	msg, ok := convertUpdate(tgbotapi.Update{Message: m})
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Channel != "telegram" || msg.ChatID != "100" || msg.SenderID != "42" {
		t.Errorf("identity fields wrong: %+v", msg)
	}
	if msg.Text != "almocei arroz" {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.Modality() != domain.ModalityText {
		t.Errorf("modality = %s", msg.Modality())
	}
}

func TestConvertUpdate_PhotoKeepsSizeOrderAndCaption(t *testing.T) {
	m := baseMessage()
	m.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "medium", Width: 320},
		{FileID: "large", Width: 1280},
	}
	m.Caption = "meu almoço"

	msg, ok := convertUpdate(tgbotapi.Update{Message: m})
	if !ok {
		t.Fatal("expected a message")
	}
	if len(msg.Photos) != 3 {
		t.Fatalf("photos = %v", msg.Photos)
	}
	best, _ := msg.BestPhoto()
	if best != domain.MediaRef("large") {
		t.Errorf("best photo = %q", best)
	}
	if msg.Text != "meu almoço" {
		t.Errorf("caption must ride as text, got %q", msg.Text)
	}
	if msg.Modality() != domain.ModalityPhoto {
		t.Errorf("modality = %s", msg.Modality())
	}
}

func TestConvertUpdate_Voice(t *testing.T) {
	m := baseMessage()
	m.Voice = &tgbotapi.Voice{FileID: "v1", Duration: 12}

	msg, ok := convertUpdate(tgbotapi.Update{Message: m})
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Voice == nil || msg.Voice.Ref != domain.MediaRef("v1") || msg.Voice.Duration != 12 {
		t.Errorf("voice = %+v", msg.Voice)
	}
}

func TestConvertUpdate_AudioTreatedAsVoice(t *testing.T) {
	m := baseMessage()
	m.Audio = &tgbotapi.Audio{FileID: "a1", Duration: 30}

	msg, ok := convertUpdate(tgbotapi.Update{Message: m})
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Voice == nil || msg.Voice.Ref != domain.MediaRef("a1") {
		t.Errorf("voice = %+v", msg.Voice)
	}
}

func TestConvertUpdate_DropsEmptyAndMalformed(t *testing.T) {
	cases := []tgbotapi.Update{
		{},
		{Message: &tgbotapi.Message{}},
		{Message: baseMessage()},
	}
	for i, u := range cases {
		if _, ok := convertUpdate(u); ok {
			t.Errorf("case %d: expected drop", i)
		}
	}
}

func TestTruncateMessage_UnderLimitUnchanged(t *testing.T) {
	text := "um texto curto"
	if got := truncateMessage(text, telegramMaxMsgLen); got != text {
		t.Errorf("got %q", got)
	}
}

func TestTruncateMessage_HardCutoff(t *testing.T) {
	long := strings.Repeat("x", 9000)
	got := truncateMessage(long, telegramMaxMsgLen)
	if len([]rune(got)) > telegramMaxMsgLen {
		t.Errorf("len = %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("cut text must be marked: %q", got[len(got)-10:])
	}
}

func TestTruncateMessage_PrefersLineBoundary(t *testing.T) {
	line := strings.Repeat("y", 3500)
	long := line + "\n" + strings.Repeat("z", 3000)
	got := truncateMessage(long, telegramMaxMsgLen)
	if got != line+"..." {
		t.Errorf("expected cut at line boundary, got len %d", len(got))
	}
}

func TestNewTelegram_AllowListParsing(t *testing.T) {
	tg := NewTelegram(TelegramConfig{
		Token:     "t",
		AllowFrom: []string{"42", " 7 ", "not-a-number"},
		Logger:    testChannelLogger(),
	})
	if !tg.isAllowed(42) || !tg.isAllowed(7) {
		t.Error("listed IDs must be allowed")
	}
	if tg.isAllowed(99) {
		t.Error("unlisted ID must be rejected")
	}
}

func TestNewTelegram_EmptyAllowListAllowsAll(t *testing.T) {
	tg := NewTelegram(TelegramConfig{Token: "t", Logger: testChannelLogger()})
	if !tg.isAllowed(12345) {
		t.Error("empty allow list must allow everyone")
	}
}
