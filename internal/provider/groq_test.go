package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"biotrack/internal/domain"
)

func testProviderLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeChatServer returns a Groq stub whose /chat/completions endpoint
// always answers with the given content.
func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newTestGroq(t *testing.T, baseURL string) *Groq {
	t.Helper()
	g, err := NewGroq(GroqConfig{
		APIKey:  "test-key",
		APIBase: baseURL,
		Logger:  testProviderLogger(),
	})
	if err != nil {
		t.Fatalf("NewGroq: %v", err)
	}
	return g
}

func TestGroq_Classify_ValidLabel(t *testing.T) {
	srv := fakeChatServer(t, "workout")
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	label, err := g.Classify(context.Background(), "Treinei peito hoje, supino reto 4 séries de 8 com 80kg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != domain.IntentWorkout {
		t.Errorf("expected workout, got %s", label)
	}
}

func TestGroq_Classify_UnknownCoercedToOther(t *testing.T) {
	srv := fakeChatServer(t, "I think this is about food, probably a meal.")
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	label, err := g.Classify(context.Background(), "alguma coisa")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != domain.IntentOther {
		t.Errorf("expected other, got %s", label)
	}
}

func TestGroq_Classify_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	_, err := g.Classify(context.Background(), "texto")
	if err == nil {
		t.Fatal("expected error")
	}
	var collab *domain.CollaboratorError
	if !errors.As(err, &collab) {
		t.Errorf("expected CollaboratorError, got %T", err)
	}
}

func TestGroq_ExtractMeal_WellFormed(t *testing.T) {
	payload := `{"items":[{"name":"arroz branco","quantity_g":150,"note":"cozido"},{"name":"frango","quantity_g":120,"note":"grelhado"}],"total_kcal":650}`
	srv := fakeChatServer(t, payload)
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	rec, err := g.ExtractMeal(context.Background(), "almocei arroz com frango")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rec.Items) != 2 || rec.Items[0].Name != "arroz branco" {
		t.Errorf("unexpected items: %+v", rec.Items)
	}
	if rec.TotalCalories != 650 {
		t.Errorf("expected 650 kcal, got %d", rec.TotalCalories)
	}
	if rec.RawDescription != "almocei arroz com frango" {
		t.Errorf("raw description lost: %q", rec.RawDescription)
	}
}

func TestGroq_ExtractMeal_MalformedPayload(t *testing.T) {
	srv := fakeChatServer(t, "desculpe, não consegui entender a refeição")
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	rec, err := g.ExtractMeal(context.Background(), "texto qualquer")
	if err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if rec != nil {
		t.Error("no partial record on malformed payload")
	}
	var malformed *domain.MalformedExtraction
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedExtraction, got %T", err)
	}
}

func TestGroq_ExtractMeal_MissingItemsField(t *testing.T) {
	srv := fakeChatServer(t, `{"total_kcal":650}`)
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	if _, err := g.ExtractMeal(context.Background(), "texto"); err == nil {
		t.Fatal("expected error for payload without items")
	}
}

func TestGroq_ExtractWorkout_FlexibleReps(t *testing.T) {
	payload := `{"muscle_group":"peito","exercises":[{"name":"supino reto","sets":4,"reps":"8-10","load_kg":80},{"name":"crucifixo","sets":3,"reps":12,"load_kg":20}]}`
	srv := fakeChatServer(t, payload)
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	rec, err := g.ExtractWorkout(context.Background(), "treinei peito")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.MuscleGroup != "peito" || len(rec.Exercises) != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Exercises[0].Reps != "8-10" {
		t.Errorf("string reps wrong: %q", rec.Exercises[0].Reps)
	}
	if rec.Exercises[1].Reps != "12" {
		t.Errorf("numeric reps wrong: %q", rec.Exercises[1].Reps)
	}
}

func TestGroq_ExtractHydration(t *testing.T) {
	srv := fakeChatServer(t, `{"kind":"água","volume_ml":500,"time":"14:30"}`)
	defer srv.Close()

	g := newTestGroq(t, srv.URL)
	rec, err := g.ExtractHydration(context.Background(), "bebi 500ml de água")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Kind != "água" || rec.VolumeMl != 500 || rec.Time != "14:30" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestLoadPrompts_AllEntriesPresent(t *testing.T) {
	spec, err := LoadPrompts()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	if spec.Classify.MaxTokens <= 0 {
		t.Error("classify maxTokens missing")
	}
	for name, entry := range map[string]PromptEntry{
		"classify":  spec.Classify,
		"meal":      spec.Meal,
		"workout":   spec.Workout,
		"hydration": spec.Hydration,
		"vision":    spec.Vision,
	} {
		if entry.Prompt == "" {
			t.Errorf("%s prompt empty", name)
		}
	}
}

func TestPromptEntry_Render(t *testing.T) {
	e := PromptEntry{Prompt: `Texto: "{{TEXT}}"`}
	got := e.Render("bebi água")
	if got != `Texto: "bebi água"` {
		t.Errorf("unexpected render: %s", got)
	}
}
