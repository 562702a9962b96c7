package pipeline

import (
	"context"
	"log/slog"
	"time"

	"biotrack/internal/domain"
	"biotrack/internal/extract"
	"biotrack/internal/metrics"
)

// dispatchState tracks the classify-then-extract protocol. Each message
// moves Unclassified -> Classified -> Extracted or Failed; there is no
// other path.
type dispatchState int

const (
	stateUnclassified dispatchState = iota
	stateClassified
	stateExtracted
	stateFailed
)

// Dispatcher turns descriptive text into an ExtractionResult by running
// the classification collaborator and then the schema extraction for the
// resolved intent. It never lets a collaborator error escape: callers only
// ever observe structured failures.
type Dispatcher struct {
	classifier domain.Classifier
	extractor  domain.Extractor
	timeout    time.Duration
	logger     *slog.Logger
}

type DispatcherConfig struct {
	Classifier domain.Classifier
	Extractor  domain.Extractor
	AITimeout  time.Duration
	Logger     *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 30 * time.Second
	}
	return &Dispatcher{
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		timeout:    cfg.AITimeout,
		logger:     cfg.Logger,
	}
}

// Dispatch processes free text: normalize, classify, extract. Empty input
// short-circuits before any collaborator call.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) domain.ExtractionResult {
	state := stateUnclassified

	text, ok := extract.Normalize(text)
	if !ok {
		return domain.FailedResult(domain.IntentOther, "", domain.ErrEmptyInput)
	}

	label, err := d.classify(ctx, text)
	if err != nil {
		d.logger.Warn("classification failed", "err", err)
		return domain.FailedResult(domain.IntentOther, text, err)
	}
	state = stateClassified

	res := d.extractFor(ctx, label, text)
	if res.Success {
		state = stateExtracted
	} else {
		state = stateFailed
	}
	d.logger.Debug("dispatch complete",
		"intent", label,
		"state", int(state),
		"has_record", res.HasRecord(),
	)
	return res
}

// DispatchVision processes vision prose from a meal photo. Vision output
// is never schema JSON, so this always routes through the deterministic
// parser and skips classification entirely.
func (d *Dispatcher) DispatchVision(prose string) domain.ExtractionResult {
	prose, ok := extract.Normalize(prose)
	if !ok {
		return domain.FailedResult(domain.IntentMeal, "", domain.ErrEmptyInput)
	}
	return domain.MealResult(extract.Meal(prose))
}

func (d *Dispatcher) classify(ctx context.Context, text string) (domain.IntentLabel, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	label, err := d.classifier.Classify(ctx, text)
	metrics.CollaboratorLatency.Observe(time.Since(start).Seconds())
	return label, err
}

// extractFor runs the schema extraction for a classified intent. Labels
// without a schema (supplement, question, greeting, other) produce a
// successful result with no record.
func (d *Dispatcher) extractFor(ctx context.Context, label domain.IntentLabel, text string) domain.ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.CollaboratorLatency.Observe(time.Since(start).Seconds())
	}()

	switch label {
	case domain.IntentMeal:
		rec, err := d.extractor.ExtractMeal(ctx, text)
		if err != nil {
			// Meals have a deterministic fallback: degraded JSON still
			// produces some structured output.
			d.logger.Warn("meal extraction failed, using line parser", "err", err)
			metrics.RegexFallbacks.Inc()
			return domain.MealResult(extract.Meal(text))
		}
		return domain.MealResult(rec)

	case domain.IntentWorkout:
		rec, err := d.extractor.ExtractWorkout(ctx, text)
		if err != nil {
			d.logger.Warn("workout extraction failed", "err", err)
			return domain.FailedResult(label, text, err)
		}
		return domain.WorkoutResult(rec, text)

	case domain.IntentHydration:
		rec, err := d.extractor.ExtractHydration(ctx, text)
		if err != nil {
			d.logger.Warn("hydration extraction failed", "err", err)
			return domain.FailedResult(label, text, err)
		}
		return domain.HydrationResult(rec, text)
	}

	return domain.NoRecordResult(label, text)
}
