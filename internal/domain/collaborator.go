package domain

import (
	"context"
	"io"
)

// Classifier labels free text with a tracking intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (IntentLabel, error)
}

// Extractor turns free text into a typed record using model-side JSON
// extraction. Each method is all-or-nothing: a response that does not
// match the schema is an error, never a partial record.
type Extractor interface {
	ExtractMeal(ctx context.Context, text string) (*MealRecord, error)
	ExtractWorkout(ctx context.Context, text string) (*WorkoutRecord, error)
	ExtractHydration(ctx context.Context, text string) (*HydrationRecord, error)
}

// Transcriber converts a voice note to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Vision describes a meal photograph as itemized prose. It never returns
// schema JSON; the deterministic fallback parser handles its output.
type Vision interface {
	DescribeMeal(ctx context.Context, image []byte, mimeType string) (string, error)
}

// MediaResolver downloads the bytes behind a media handle.
type MediaResolver interface {
	Resolve(ctx context.Context, ref MediaRef) ([]byte, error)
}
