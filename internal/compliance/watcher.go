package compliance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/tint/internal/events"
	"github.com/opencode-ai/tint/internal/logging"
	"github.com/opencode-ai/tint/internal/models"
	"github.com/opencode-ai/tint/internal/store"
)

// Watcher re-evaluates registered pairs whenever resolved values change
// and applies corrective shade substitutions through the store.
//
// Like the store it watches, the watcher is confined to the engine's
// goroutine; Tick and Scan never run concurrently with writes.
type Watcher struct {
	store    *store.Store
	recorder events.Recorder
	logger   zerolog.Logger

	pairs  []*models.CompliancePair
	states map[string]models.PairState

	// dirty coalesces change notifications until the next tick. A cascade
	// writing twelve tokens produces one scan pass, not twelve.
	dirty map[string]struct{}
}

// NewWatcher creates a watcher over st. recorder may be nil.
func NewWatcher(st *store.Store, recorder events.Recorder) *Watcher {
	return &Watcher{
		store:    st,
		recorder: recorder,
		logger:   logging.Component("compliance"),
		states:   make(map[string]models.PairState),
		dirty:    make(map[string]struct{}),
	}
}

// Register declares a minimum contrast ratio between two token paths.
func (w *Watcher) Register(foreground, background models.Path, minimumRatio float64) (models.CompliancePair, error) {
	return w.Restore(models.CompliancePair{
		Foreground:   foreground,
		Background:   background,
		MinimumRatio: minimumRatio,
	})
}

// Restore registers a previously exported pair under its original ID, so
// change-log entries stay correlated across sessions. An empty ID gets a
// fresh one.
func (w *Watcher) Restore(pair models.CompliancePair) (models.CompliancePair, error) {
	if pair.ID == "" {
		pair.ID = uuid.New().String()
	}
	if err := pair.Validate(); err != nil {
		return models.CompliancePair{}, fmt.Errorf("invalid compliance pair: %w", err)
	}
	w.pairs = append(w.pairs, &pair)
	w.states[pair.ID] = models.PairIdle
	return pair, nil
}

// Pairs returns copies of the registered pairs in registration order.
func (w *Watcher) Pairs() []models.CompliancePair {
	out := make([]models.CompliancePair, 0, len(w.pairs))
	for _, pair := range w.pairs {
		out = append(out, *pair)
	}
	return out
}

// State returns the watcher's current state for a pair.
func (w *Watcher) State(pairID string) models.PairState {
	if state, ok := w.states[pairID]; ok {
		return state
	}
	return models.PairIdle
}

// OnChange records that a path changed. Evaluation is deferred to the next
// tick; notifications are coalesced, never dropped.
func (w *Watcher) OnChange(event models.ChangeEvent) {
	w.dirty[event.Path.String()] = struct{}{}
}

// Tick runs one scan pass if any writes landed since the last tick.
func (w *Watcher) Tick(ctx context.Context) []models.ComplianceResult {
	if len(w.dirty) == 0 {
		return nil
	}
	return w.Scan(ctx)
}

// Scan evaluates every registered pair regardless of pending changes.
// Each pair is evaluated at most once per pass; writes made by fixes
// re-dirty their paths and are re-evaluated on the next tick.
func (w *Watcher) Scan(ctx context.Context) []models.ComplianceResult {
	w.dirty = make(map[string]struct{})

	results := make([]models.ComplianceResult, 0, len(w.pairs))
	for _, pair := range w.pairs {
		result, ok := w.scanPair(ctx, pair)
		if ok {
			results = append(results, result)
		}
	}
	return results
}

// scanPair evaluates one pair and fixes it if needed. Pairs whose tokens
// do not resolve to colors are skipped with a warning; one broken token
// must not abort the rest of the batch.
func (w *Watcher) scanPair(ctx context.Context, pair *models.CompliancePair) (models.ComplianceResult, bool) {
	w.states[pair.ID] = models.PairScanning
	defer func() { w.states[pair.ID] = models.PairIdle }()

	fg, err := w.store.Resolve(pair.Foreground)
	if err != nil {
		w.logger.Warn().Err(err).Str("pair", pair.ID).Msg("foreground did not resolve; pair skipped")
		return models.ComplianceResult{}, false
	}
	bg, err := w.store.Resolve(pair.Background)
	if err != nil {
		w.logger.Warn().Err(err).Str("pair", pair.ID).Msg("background did not resolve; pair skipped")
		return models.ComplianceResult{}, false
	}

	ratio, err := Ratio(fg.Value, bg.Value)
	if err != nil {
		w.logger.Warn().Err(err).Str("pair", pair.ID).Msg("pair does not resolve to colors; skipped")
		return models.ComplianceResult{}, false
	}

	if ratio >= pair.MinimumRatio {
		return models.ComplianceResult{Pair: *pair, Ratio: ratio, Status: models.CompliancePass}, true
	}

	w.logger.Info().
		Str("pair", pair.ID).
		Float64("ratio", ratio).
		Float64("minimum", pair.MinimumRatio).
		Msg("contrast violation detected")
	w.record(ctx, models.EventTypeComplianceViolation, pair.ID, models.ComplianceViolationPayload{
		PairID:  pair.ID,
		Ratio:   ratio,
		Minimum: pair.MinimumRatio,
	})

	return w.fixPair(ctx, pair, bg.Value, fg.Value, ratio), true
}

// fixPair walks the foreground's color scale one step at a time toward
// higher contrast, substituting the first shade that satisfies the
// minimum. If the scale is exhausted the best shade found stays in place
// and the pair is reported unsatisfiable.
func (w *Watcher) fixPair(ctx context.Context, pair *models.CompliancePair, bgHex, fgHex string, ratio float64) models.ComplianceResult {
	w.states[pair.ID] = models.PairFixing

	family, step, isScaleStep := models.ScaleMember(pair.Foreground)
	if !isScaleStep {
		// Nothing to walk; the foreground is not part of a scale.
		w.recordUnsatisfiable(ctx, pair, ratio)
		return models.ComplianceResult{Pair: *pair, Ratio: ratio, Status: models.ComplianceUnsatisfiable}
	}

	// The version observed before walking; a newer edit to the foreground
	// invalidates the fix rather than being clobbered by it.
	baseVersion := w.store.Version(pair.Foreground)

	bgLum, err := Luminance(bgHex)
	if err != nil {
		w.recordUnsatisfiable(ctx, pair, ratio)
		return models.ComplianceResult{Pair: *pair, Ratio: ratio, Status: models.ComplianceUnsatisfiable}
	}

	// Against light backgrounds walk darker, otherwise lighter.
	direction := 1
	if bgLum < 0.5 {
		direction = -1
	}

	startIdx, _ := models.StepIndex(step)
	bestHex, bestRatio := fgHex, ratio
	satisfied := false

	for i := startIdx + direction; i >= 0 && i < models.NumScaleSteps; i += direction {
		candidate, err := w.store.Resolve(models.ScaleStepPath(family, models.StepAt(i)))
		if err != nil {
			continue
		}
		candidateRatio, err := Ratio(candidate.Value, bgHex)
		if err != nil {
			continue
		}
		if candidateRatio > bestRatio {
			bestHex, bestRatio = candidate.Value, candidateRatio
		}
		if candidateRatio >= pair.MinimumRatio {
			satisfied = true
			break
		}
	}

	if bestHex == fgHex {
		// No shade improved on the current one.
		w.recordUnsatisfiable(ctx, pair, bestRatio)
		return models.ComplianceResult{Pair: *pair, Ratio: bestRatio, Status: models.ComplianceUnsatisfiable}
	}

	if err := w.store.SetVersioned(pair.Foreground, bestHex, baseVersion); err != nil {
		if errors.Is(err, store.ErrStaleWrite) {
			// A newer edit superseded the scan; discard the stale fix.
			// The superseding write re-dirties the pair for the next tick.
			w.logger.Debug().Str("pair", pair.ID).Msg("fix superseded by a newer edit; discarded")
			return models.ComplianceResult{Pair: *pair, Ratio: ratio, Status: models.ComplianceViolation}
		}
		w.logger.Error().Err(err).Str("pair", pair.ID).Msg("fix write failed")
		return models.ComplianceResult{Pair: *pair, Ratio: ratio, Status: models.ComplianceViolation}
	}

	fix := &models.AppliedFix{Path: pair.Foreground, NewValue: bestHex}

	if !satisfied {
		w.logger.Warn().
			Str("pair", pair.ID).
			Float64("best_ratio", bestRatio).
			Msg("scale exhausted; best shade retained")
		w.recordUnsatisfiable(ctx, pair, bestRatio)
		return models.ComplianceResult{
			Pair:       *pair,
			Ratio:      bestRatio,
			Status:     models.ComplianceUnsatisfiable,
			AppliedFix: fix,
		}
	}

	w.logger.Info().
		Str("pair", pair.ID).
		Str("new_value", bestHex).
		Float64("ratio", bestRatio).
		Msg("compliance restored")
	w.record(ctx, models.EventTypeComplianceFixed, pair.ID, models.ComplianceFixedPayload{
		PairID:   pair.ID,
		Path:     pair.Foreground.String(),
		NewValue: bestHex,
		Ratio:    bestRatio,
	})

	return models.ComplianceResult{
		Pair:       *pair,
		Ratio:      bestRatio,
		Status:     models.CompliancePass,
		AppliedFix: fix,
	}
}

func (w *Watcher) recordUnsatisfiable(ctx context.Context, pair *models.CompliancePair, bestRatio float64) {
	w.record(ctx, models.EventTypeComplianceUnsatisfiable, pair.ID, models.ComplianceUnsatisfiablePayload{
		PairID:    pair.ID,
		BestRatio: bestRatio,
		Minimum:   pair.MinimumRatio,
	})
}

func (w *Watcher) record(ctx context.Context, eventType models.EventType, pairID string, payload any) {
	if err := events.Record(ctx, w.recorder, eventType, models.EntityTypePair, pairID, payload); err != nil {
		w.logger.Warn().Err(err).Msg("failed to record compliance event")
	}
}
