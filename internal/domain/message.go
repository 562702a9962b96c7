package domain

import (
	"strings"
	"time"
)

// Modality is the kind of inbound content: text, voice, photo, or command.
// A message resolves to exactly one modality (first-match-wins priority).
type Modality string

const (
	ModalityCommand Modality = "command"
	ModalityPhoto   Modality = "photo"
	ModalityVoice   Modality = "voice"
	ModalityText    Modality = "text"
	ModalityNone    Modality = "none"
)

// MediaRef is an opaque handle to a media file on the chat platform.
// Resolving it to bytes is the transport's job.
type MediaRef string

// VoiceRef points at a voice note and carries its duration in seconds.
type VoiceRef struct {
	Ref      MediaRef
	Duration int
}

type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Text      string     // free text, or the caption when media is attached
	Voice     *VoiceRef
	Photos    []MediaRef // ordered low to high resolution
	Timestamp time.Time
}

// Modality selects the handling path for this message.
// Photo wins over voice, voice over text; a bare "/..." text is a command.
func (m InboundMessage) Modality() Modality {
	if len(m.Photos) > 0 {
		return ModalityPhoto
	}
	if m.Voice != nil {
		return ModalityVoice
	}
	if t := strings.TrimSpace(m.Text); t != "" {
		if strings.HasPrefix(t, "/") {
			return ModalityCommand
		}
		return ModalityText
	}
	return ModalityNone
}

// BestPhoto returns the highest-resolution photo reference, if any.
// Telegram orders photo sizes ascending, so the last entry wins.
func (m InboundMessage) BestPhoto() (MediaRef, bool) {
	if len(m.Photos) == 0 {
		return "", false
	}
	return m.Photos[len(m.Photos)-1], true
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Format  string // text | markdown
}
