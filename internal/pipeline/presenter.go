package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"biotrack/internal/domain"
)

const (
	// previewMaxLen bounds how much of the user's original text is echoed
	// back. The transport applies its own hard message-size cutoff.
	previewMaxLen = 100

	// recordSummaryMaxLen bounds the rendered record JSON in replies.
	recordSummaryMaxLen = 300
)

const fallbackReply = "✅ Mensagem recebida! (Processamento avançado em configuração)"

// PresentResult renders an extraction outcome as the user-facing reply.
// On failure it renders the error string, never a partial record.
func PresentResult(res domain.ExtractionResult, modality domain.Modality, caption string) string {
	if !res.Success {
		return presentFailure(res, modality)
	}

	switch modality {
	case domain.ModalityPhoto:
		return presentPhoto(res, caption)
	case domain.ModalityVoice:
		return presentVoice(res)
	default:
		return presentText(res)
	}
}

func presentFailure(res domain.ExtractionResult, modality domain.Modality) string {
	switch modality {
	case domain.ModalityPhoto:
		return fmt.Sprintf("⚠️ Erro na análise: %s", res.Err)
	case domain.ModalityVoice:
		return fmt.Sprintf("⚠️ Erro na transcrição: %s", res.Err)
	}
	return fmt.Sprintf("❌ Erro no processamento: %s", res.Err)
}

func presentPhoto(res domain.ExtractionResult, caption string) string {
	var b strings.Builder
	b.WriteString("📸 *Foto Analisada!*\n\n")
	b.WriteString(res.RawDescription)
	b.WriteString("\n\n")
	if caption != "" {
		fmt.Fprintf(&b, "📝 Legenda: %s\n", Preview(caption))
	}
	if summary := recordSummary(res); summary != "" {
		fmt.Fprintf(&b, "📊 Dados: %s\n", summary)
	}
	b.WriteString("\n✅ Dados extraídos e salvos na fila de sincronização!")
	return b.String()
}

func presentVoice(res domain.ExtractionResult) string {
	var b strings.Builder
	b.WriteString("🎙️ *Áudio Transcrito!*\n\n")
	fmt.Fprintf(&b, "📝 Texto: \"%s\"\n\n", Preview(res.RawDescription))
	fmt.Fprintf(&b, "🎯 Intenção: %s\n", res.Intent)
	if summary := recordSummary(res); summary != "" {
		fmt.Fprintf(&b, "📊 Dados extraídos: %s\n", summary)
	}
	b.WriteString("\n✅ Salvo na fila de sincronização!")
	return b.String()
}

func presentText(res domain.ExtractionResult) string {
	var b strings.Builder
	b.WriteString(intentHeading(res.Intent))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "📝 Texto: \"%s\"\n", Preview(res.RawDescription))
	fmt.Fprintf(&b, "🎯 Intenção: %s\n", res.Intent)
	if summary := recordSummary(res); summary != "" {
		fmt.Fprintf(&b, "📊 Dados: %s\n", summary)
	}
	b.WriteString("\n✅ Salvo na fila de sincronização!")
	return b.String()
}

func intentHeading(label domain.IntentLabel) string {
	switch label {
	case domain.IntentMeal:
		return "🍽️ Refeição registrada!"
	case domain.IntentWorkout:
		return "💪 Treino registrado!"
	case domain.IntentHydration:
		return "💧 Hidratação registrada!"
	}
	return "📝 Mensagem registrada!"
}

// Preview truncates echoed text to the bounded preview length, appending
// an ellipsis marker when cut. Rune-based so accented text is never split
// mid-character.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewMaxLen {
		return text
	}
	return string(runes[:previewMaxLen]) + "..."
}

// recordSummary renders the populated record variant as indented JSON,
// bounded for chat display. Empty when the result carries no record.
func recordSummary(res domain.ExtractionResult) string {
	var rec any
	switch {
	case res.Meal != nil:
		rec = res.Meal
	case res.Workout != nil:
		rec = res.Workout
	case res.Hydration != nil:
		rec = res.Hydration
	default:
		return ""
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return ""
	}
	s := string(data)
	runes := []rune(s)
	if len(runes) > recordSummaryMaxLen {
		s = string(runes[:recordSummaryMaxLen]) + "..."
	}
	return s
}
