package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// IntentLabel classifies what a tracking message is about.
// The set is closed; anything a classifier returns outside it is coerced
// to IntentOther by ParseIntent. Immutable once assigned to a result.
type IntentLabel string

const (
	IntentMeal       IntentLabel = "meal"
	IntentWorkout    IntentLabel = "workout"
	IntentHydration  IntentLabel = "hydration"
	IntentSupplement IntentLabel = "supplement"
	IntentQuestion   IntentLabel = "question"
	IntentGreeting   IntentLabel = "greeting"
	IntentOther      IntentLabel = "other"
)

// ParseIntent validates a raw classifier answer against the closed label set.
func ParseIntent(raw string) IntentLabel {
	label := IntentLabel(strings.ToLower(strings.TrimSpace(raw)))
	switch label {
	case IntentMeal, IntentWorkout, IntentHydration, IntentSupplement,
		IntentQuestion, IntentGreeting, IntentOther:
		return label
	}
	return IntentOther
}

// FoodItem is one food entry in a meal. QuantityGrams is 0 when no gram
// figure could be recovered from the source text.
type FoodItem struct {
	Name          string `json:"name"`
	QuantityGrams int    `json:"quantity_g"`
	Note          string `json:"note,omitempty"`
}

// MealRecord holds items in the order they were discovered in the source
// text. TotalCalories of 0 means unknown.
type MealRecord struct {
	Items          []FoodItem `json:"items"`
	TotalCalories  int        `json:"total_kcal"`
	RawDescription string     `json:"-"`
}

// FlexString is a string that also unmarshals from a JSON number. Models
// return reps both as "8-10" and as a bare 12.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

type ExerciseItem struct {
	Name   string     `json:"name"`
	Sets   int        `json:"sets"`
	Reps   FlexString `json:"reps"`
	LoadKg float64    `json:"load_kg"`
}

type WorkoutRecord struct {
	MuscleGroup string         `json:"muscle_group"`
	Exercises   []ExerciseItem `json:"exercises"`
	Time        string         `json:"time,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

type HydrationRecord struct {
	Kind     string `json:"kind"`
	VolumeMl int    `json:"volume_ml"`
	Time     string `json:"time,omitempty"`
}

// ExtractionResult is the outcome of one pipeline invocation: a tagged
// union over the record kinds plus a success flag. A failed result never
// carries a record; use the constructors below to keep that invariant.
type ExtractionResult struct {
	Intent         IntentLabel
	Meal           *MealRecord
	Workout        *WorkoutRecord
	Hydration      *HydrationRecord
	RawDescription string
	Success        bool
	Err            string
}

// HasRecord reports whether any record variant is populated.
func (r ExtractionResult) HasRecord() bool {
	return r.Meal != nil || r.Workout != nil || r.Hydration != nil
}

// FailedResult builds a failure outcome. The record variants stay nil.
func FailedResult(intent IntentLabel, raw string, err error) ExtractionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ExtractionResult{
		Intent:         intent,
		RawDescription: raw,
		Success:        false,
		Err:            msg,
	}
}

// NoRecordResult builds a successful outcome with no structured record,
// used for intents that carry nothing to extract (question, greeting, ...).
func NoRecordResult(intent IntentLabel, raw string) ExtractionResult {
	return ExtractionResult{Intent: intent, RawDescription: raw, Success: true}
}

func MealResult(rec *MealRecord) ExtractionResult {
	return ExtractionResult{
		Intent:         IntentMeal,
		Meal:           rec,
		RawDescription: rec.RawDescription,
		Success:        true,
	}
}

func WorkoutResult(rec *WorkoutRecord, raw string) ExtractionResult {
	return ExtractionResult{
		Intent:         IntentWorkout,
		Workout:        rec,
		RawDescription: raw,
		Success:        true,
	}
}

func HydrationResult(rec *HydrationRecord, raw string) ExtractionResult {
	return ExtractionResult{
		Intent:         IntentHydration,
		Hydration:      rec,
		RawDescription: raw,
		Success:        true,
	}
}
