package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"biotrack/internal/domain"
)

func testPipelineLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubClassifier struct {
	label domain.IntentLabel
	err   error
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (domain.IntentLabel, error) {
	s.calls++
	return s.label, s.err
}

type stubExtractor struct {
	meal         *domain.MealRecord
	mealErr      error
	workout      *domain.WorkoutRecord
	workoutErr   error
	hydration    *domain.HydrationRecord
	hydrationErr error
	calls        int
}

func (s *stubExtractor) ExtractMeal(ctx context.Context, text string) (*domain.MealRecord, error) {
	s.calls++
	return s.meal, s.mealErr
}

func (s *stubExtractor) ExtractWorkout(ctx context.Context, text string) (*domain.WorkoutRecord, error) {
	s.calls++
	return s.workout, s.workoutErr
}

func (s *stubExtractor) ExtractHydration(ctx context.Context, text string) (*domain.HydrationRecord, error) {
	s.calls++
	return s.hydration, s.hydrationErr
}

func newTestDispatcher(c domain.Classifier, e domain.Extractor) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Classifier: c,
		Extractor:  e,
		Logger:     testPipelineLogger(),
	})
}

func TestDispatch_EmptyInputShortCircuits(t *testing.T) {
	classifier := &stubClassifier{label: domain.IntentMeal}
	extractor := &stubExtractor{}
	d := newTestDispatcher(classifier, extractor)

	res := d.Dispatch(context.Background(), "   \n\t  ")

	if res.Success {
		t.Error("empty input must fail")
	}
	if !strings.Contains(res.Err, "empty input") {
		t.Errorf("expected empty input error, got %q", res.Err)
	}
	if classifier.calls != 0 || extractor.calls != 0 {
		t.Error("no collaborator call may happen for empty input")
	}
}

func TestDispatch_ClassificationFailure(t *testing.T) {
	classifier := &stubClassifier{err: &domain.CollaboratorError{Op: "classify", Err: errors.New("timeout")}}
	extractor := &stubExtractor{}
	d := newTestDispatcher(classifier, extractor)

	res := d.Dispatch(context.Background(), "almocei arroz")

	if res.Success {
		t.Error("classification failure must fail the result")
	}
	if res.Err == "" {
		t.Error("error string must be non-empty")
	}
	if res.HasRecord() {
		t.Error("failed result must not carry a record")
	}
	if extractor.calls != 0 {
		t.Error("extraction must not be attempted after classification failure")
	}
}

func TestDispatch_WorkoutExtractionFailureIsNotSilentlyZeroed(t *testing.T) {
	classifier := &stubClassifier{label: domain.IntentWorkout}
	extractor := &stubExtractor{workoutErr: &domain.CollaboratorError{Op: "extract workout", Err: errors.New("api down")}}
	d := newTestDispatcher(classifier, extractor)

	res := d.Dispatch(context.Background(), "Treinei peito hoje, supino reto 4 séries de 8 com 80kg")

	if res.Success {
		t.Error("workout extraction failure must surface")
	}
	if res.Workout != nil {
		t.Error("no zero-valued workout record may be substituted")
	}
	if res.Err == "" {
		t.Error("error string must name the failure")
	}
}

func TestDispatch_WorkoutSuccess(t *testing.T) {
	rec := &domain.WorkoutRecord{MuscleGroup: "peito"}
	classifier := &stubClassifier{label: domain.IntentWorkout}
	d := newTestDispatcher(classifier, &stubExtractor{workout: rec})

	res := d.Dispatch(context.Background(), "treinei peito")

	if !res.Success || res.Workout != rec {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Intent != domain.IntentWorkout {
		t.Errorf("intent wrong: %s", res.Intent)
	}
	if res.RawDescription != "treinei peito" {
		t.Errorf("raw description wrong: %q", res.RawDescription)
	}
}

func TestDispatch_MealFailureFallsBackToLineParser(t *testing.T) {
	classifier := &stubClassifier{label: domain.IntentMeal}
	extractor := &stubExtractor{mealErr: &domain.MalformedExtraction{Schema: "meal", Err: errors.New("not json")}}
	d := newTestDispatcher(classifier, extractor)

	res := d.Dispatch(context.Background(), "- Arroz: ~150g\nEstimativa: 400 kcal")

	if !res.Success {
		t.Fatalf("fallback must produce a successful result: %+v", res)
	}
	if res.Meal == nil || len(res.Meal.Items) != 1 {
		t.Fatalf("fallback items wrong: %+v", res.Meal)
	}
	if res.Meal.Items[0].Name != "Arroz" || res.Meal.TotalCalories != 400 {
		t.Errorf("fallback parse wrong: %+v", res.Meal)
	}
}

func TestDispatch_HydrationSuccess(t *testing.T) {
	rec := &domain.HydrationRecord{Kind: "água", VolumeMl: 500}
	classifier := &stubClassifier{label: domain.IntentHydration}
	d := newTestDispatcher(classifier, &stubExtractor{hydration: rec})

	res := d.Dispatch(context.Background(), "bebi 500ml de água")
	if !res.Success || res.Hydration != rec {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDispatch_NoSchemaLabelsSkipExtraction(t *testing.T) {
	for _, label := range []domain.IntentLabel{
		domain.IntentSupplement, domain.IntentQuestion, domain.IntentGreeting, domain.IntentOther,
	} {
		classifier := &stubClassifier{label: label}
		extractor := &stubExtractor{}
		d := newTestDispatcher(classifier, extractor)

		res := d.Dispatch(context.Background(), "bom dia")

		if !res.Success {
			t.Errorf("label %s: expected success", label)
		}
		if res.HasRecord() {
			t.Errorf("label %s: expected no record", label)
		}
		if res.RawDescription != "bom dia" {
			t.Errorf("label %s: raw description lost", label)
		}
		if extractor.calls != 0 {
			t.Errorf("label %s: extraction must not run", label)
		}
	}
}

func TestDispatchVision_AlwaysUsesLineParser(t *testing.T) {
	// The classifier and extractor must never be consulted for vision prose.
	classifier := &stubClassifier{label: domain.IntentWorkout}
	extractor := &stubExtractor{}
	d := newTestDispatcher(classifier, extractor)

	res := d.DispatchVision("- Arroz branco: ~150g (cozido)\nEstimativa: ~650 kcal")

	if !res.Success || res.Meal == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Meal.Items[0].QuantityGrams != 150 || res.Meal.TotalCalories != 650 {
		t.Errorf("parse wrong: %+v", res.Meal)
	}
	if classifier.calls != 0 || extractor.calls != 0 {
		t.Error("vision prose must not reach the model collaborators")
	}
}

func TestDispatchVision_EmptyProse(t *testing.T) {
	d := newTestDispatcher(&stubClassifier{}, &stubExtractor{})
	res := d.DispatchVision("   ")
	if res.Success {
		t.Error("empty vision prose must fail")
	}
}
