package pipeline

import (
	"strings"
	"testing"
)

func TestParseCommand_Basic(t *testing.T) {
	cmd := ParseCommand("/start")
	if cmd == nil {
		t.Fatal("expected command")
	}
	if cmd.Name != "start" || len(cmd.Args) != 0 {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseCommand_WithArgs(t *testing.T) {
	cmd := ParseCommand("/agua 500ml hoje")
	if cmd == nil {
		t.Fatal("expected command")
	}
	if cmd.Name != "agua" {
		t.Errorf("name = %q", cmd.Name)
	}
	if len(cmd.Args) != 2 || cmd.Args[0] != "500ml" {
		t.Errorf("args = %v", cmd.Args)
	}
}

func TestParseCommand_CaseInsensitiveName(t *testing.T) {
	cmd := ParseCommand("/STATUS")
	if cmd == nil || cmd.Name != "status" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseCommand_NotACommand(t *testing.T) {
	for _, text := range []string{"almocei arroz", "", "  ", "comi /start"} {
		if cmd := ParseCommand(text); cmd != nil {
			t.Errorf("%q: expected nil, got %+v", text, cmd)
		}
	}
}

func TestParseCommand_LeadingWhitespace(t *testing.T) {
	cmd := ParseCommand("  /ajuda")
	if cmd == nil || cmd.Name != "ajuda" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestCommandReply_KnownCommands(t *testing.T) {
	for _, name := range []string{"start", "ajuda", "help", "refeicao", "treino", "agua"} {
		got := CommandReply(&Command{Name: name}, "")
		if got == "" {
			t.Errorf("/%s: empty reply", name)
		}
		if strings.Contains(got, "não reconhecido") {
			t.Errorf("/%s: treated as unknown", name)
		}
	}
}

func TestCommandReply_StatusUsesCallerText(t *testing.T) {
	got := CommandReply(&Command{Name: "status"}, "📊 Status: ok")
	if got != "📊 Status: ok" {
		t.Errorf("got %q", got)
	}
}

func TestCommandReply_Unknown(t *testing.T) {
	got := CommandReply(&Command{Name: "xyz"}, "")
	if !strings.Contains(got, "/xyz não reconhecido") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "/ajuda") {
		t.Errorf("unknown reply must point at /ajuda: %q", got)
	}
}
