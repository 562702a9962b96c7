package pipeline

import "strings"

// Command is a parsed slash command.
type Command struct {
	Name string   // command name without "/"
	Args []string // arguments after the command
	Raw  string   // original full text
}

// ParseCommand checks if a message starts with "/" and parses it into a
// Command. Returns nil if the message is not a command.
func ParseCommand(text string) *Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return &Command{Name: name, Args: args, Raw: text}
}

const startText = `🎯 *Biotrack Bot*

*O que posso fazer:*
• 📸 Fotos de refeições → análise automática
• 🎙️ Áudios → transcrição + extração de dados
• 💬 Texto livre → extração inteligente de dados

*Envie agora:*
• Uma foto da sua refeição
• Um áudio descrevendo o treino
• Um texto sobre o que comeu

Vou processar e registrar tudo automaticamente! 🚀`

// commandTable maps a command name to its static reply. Commands never
// reach the classification or extraction collaborators.
var commandTable = map[string]string{
	"start":    startText,
	"ajuda":    "Use /start para ver as funcionalidades ou /status para diagnóstico.",
	"help":     "Use /start para ver as funcionalidades ou /status para diagnóstico.",
	"refeicao": "📸 Envie uma foto da sua refeição ou descreva em texto/áudio. Vou analisar e extrair os alimentos automaticamente!",
	"treino":   "🎙️ Envie um áudio descrevendo seu treino (exercícios, séries, cargas) ou diga o que treinou.",
	"agua":     "💧 Quanto de água você bebeu? Pode enviar em texto ('500ml') ou áudio.",
}

// CommandReply resolves a command against the static table. statusText is
// supplied by the caller since it depends on runtime configuration.
func CommandReply(cmd *Command, statusText string) string {
	if cmd == nil {
		return ""
	}
	if cmd.Name == "status" {
		return statusText
	}
	if reply, ok := commandTable[cmd.Name]; ok {
		return reply
	}
	return "Comando /" + cmd.Name + " não reconhecido. Use /ajuda"
}
