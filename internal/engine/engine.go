// Package engine wires the token store, name mapper, cascade engine and
// compliance watcher into the public surface consumed by hosts.
//
// The engine is single-threaded by design: every mutating call runs to
// completion, then a single watcher tick evaluates the coalesced batch of
// writes the call produced. There is no concurrent-writer scenario and no
// locking; hosts serialize access to one engine instance.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/tint/internal/cascade"
	"github.com/opencode-ai/tint/internal/compliance"
	"github.com/opencode-ai/tint/internal/events"
	"github.com/opencode-ai/tint/internal/logging"
	"github.com/opencode-ai/tint/internal/models"
	"github.com/opencode-ai/tint/internal/naming"
	"github.com/opencode-ai/tint/internal/persist"
	"github.com/opencode-ai/tint/internal/store"
)

// Engine errors.
var (
	ErrUnknownFamily = errors.New("unknown color family")
)

// Config contains engine configuration.
type Config struct {
	// Cascade holds the interpolation endpoints for scale regeneration.
	Cascade cascade.Config

	// AutoScan runs a compliance tick after every mutating call.
	// Default: true.
	AutoScan bool
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Cascade:  cascade.DefaultConfig(),
		AutoScan: true,
	}
}

// Engine is the token engine's public facade.
type Engine struct {
	cfg      Config
	logger   zerolog.Logger
	store    *store.Store
	mapper   *naming.Mapper
	cascade  *cascade.Engine
	watcher  *compliance.Watcher
	recorder events.Recorder
}

// New creates an engine. recorder may be nil; when set, scale and
// compliance activity is appended to the host's change log.
func New(cfg Config, recorder events.Recorder) *Engine {
	st := store.New()
	watcher := compliance.NewWatcher(st, recorder)
	// The watcher is the first subscriber so fixes observe every write.
	if err := st.Subscribe("compliance-watcher", watcher.OnChange); err != nil {
		// Impossible on a fresh store; surface loudly if it ever happens.
		panic(err)
	}

	return &Engine{
		cfg:      cfg,
		logger:   logging.Component("engine"),
		store:    st,
		mapper:   naming.New(),
		cascade:  cascade.New(cfg.Cascade),
		watcher:  watcher,
		recorder: recorder,
	}
}

// Resolve resolves a dot-joined token path to its terminal literal.
func (e *Engine) Resolve(path string) (store.Resolved, error) {
	parsed, err := models.ParsePath(path)
	if err != nil {
		return store.Resolved{}, err
	}
	return e.store.Resolve(parsed)
}

// SetToken writes a literal or reference at a dot-joined path, then runs
// one compliance tick over the write.
func (e *Engine) SetToken(ctx context.Context, path, raw string) error {
	parsed, err := models.ParsePath(path)
	if err != nil {
		return err
	}
	old, _ := e.store.Get(parsed)
	if err := e.store.Set(parsed, raw); err != nil {
		return err
	}
	e.recordTokenSet(ctx, parsed, old.Raw, raw)
	e.tick(ctx)
	return nil
}

// Tokens returns all base tokens sorted by path.
func (e *Engine) Tokens() []models.Token {
	return e.store.Tokens()
}

// Overrides returns the active override literals keyed by dot-joined path.
func (e *Engine) Overrides() map[string]string {
	return e.store.Overrides()
}

// SetOverride shadows a token with a literal value.
func (e *Engine) SetOverride(ctx context.Context, path, literal string) error {
	parsed, err := models.ParsePath(path)
	if err != nil {
		return err
	}
	if err := e.store.SetOverride(parsed, literal); err != nil {
		return err
	}
	e.record(ctx, models.EventTypeOverrideSet, models.EntityTypeToken, parsed.String(), models.OverrideSetPayload{
		Value: literal,
	})
	e.tick(ctx)
	return nil
}

// ClearOverride removes an override.
func (e *Engine) ClearOverride(ctx context.Context, path string) error {
	parsed, err := models.ParsePath(path)
	if err != nil {
		return err
	}
	e.store.ClearOverride(parsed)
	e.record(ctx, models.EventTypeOverrideCleared, models.EntityTypeToken, parsed.String(), nil)
	e.tick(ctx)
	return nil
}

// ApplyCascade edits one step of an existing family and regenerates the
// requested neighboring steps. Only steps whose value actually changed are
// written back; the whole batch is evaluated in a single compliance tick.
func (e *Engine) ApplyCascade(ctx context.Context, family, step, hex string, cascadeDown, cascadeUp bool) (models.ColorScale, error) {
	current, err := e.Scale(family)
	if err != nil {
		return models.ColorScale{}, err
	}

	regenerated, err := e.cascade.Apply(current, step, hex, cascadeDown, cascadeUp)
	if err != nil {
		return models.ColorScale{}, err
	}

	written := 0
	for i := range regenerated.Hex {
		if regenerated.Hex[i] == current.Hex[i] {
			continue
		}
		path := models.ScaleStepPath(family, models.StepAt(i))
		if err := e.store.Set(path, regenerated.Hex[i]); err != nil {
			return models.ColorScale{}, err
		}
		written++
	}

	e.record(ctx, models.EventTypeScaleCascaded, models.EntityTypeScale, family, models.ScaleCascadedPayload{
		Family:       family,
		EditedStep:   step,
		EditedHex:    hex,
		CascadeDown:  cascadeDown,
		CascadeUp:    cascadeUp,
		StepsWritten: written,
	})
	e.tick(ctx)
	return regenerated, nil
}

// SynthesizeScale creates a brand-new 12-step family from one seed color.
// When name is empty the family is named after the seed's hue bucket,
// suffixed to avoid collisions with existing families.
func (e *Engine) SynthesizeScale(ctx context.Context, seedHex, name string) (models.ColorScale, error) {
	scale, err := e.cascade.Synthesize(seedHex)
	if err != nil {
		return models.ColorScale{}, err
	}
	if name != "" {
		scale.Alias = name
	}
	scale.Alias = e.uniqueAlias(scale.Alias)

	if err := e.store.WriteScale(scale); err != nil {
		return models.ColorScale{}, err
	}
	e.mapper.RegisterFamily(scale.Alias)

	e.logger.Info().
		Str("family", scale.Alias).
		Str("seed", seedHex).
		Msg("scale synthesized")
	e.record(ctx, models.EventTypeScaleSynthesized, models.EntityTypeScale, scale.Alias, map[string]string{
		"seed": seedHex,
	})
	e.tick(ctx)
	return scale, nil
}

// DeleteScale removes a family: all twelve steps and the alias together.
func (e *Engine) DeleteScale(ctx context.Context, family string) error {
	if !e.mapper.Registered(family) {
		return fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	e.store.DeleteScale(family)
	e.mapper.UnregisterFamily(family)
	e.record(ctx, models.EventTypeScaleDeleted, models.EntityTypeScale, family, nil)
	e.tick(ctx)
	return nil
}

// Scale reads the resolved shades of a family. Reading a family that was
// never registered reports ErrUnknownFamily; a registered family whose
// steps fail to resolve surfaces the store's error unchanged.
func (e *Engine) Scale(family string) (models.ColorScale, error) {
	scale, err := e.store.Scale(family)
	if err != nil {
		if !e.mapper.Registered(family) {
			return models.ColorScale{}, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
		}
		return models.ColorScale{}, err
	}
	return scale, nil
}

// Families lists registered family aliases in registration order.
func (e *Engine) Families() []string {
	return e.mapper.Families()
}

// RegisterCompliancePair declares a minimum contrast ratio between two
// dot-joined token paths. The pair is evaluated on the next scan or tick.
func (e *Engine) RegisterCompliancePair(foreground, background string, minimumRatio float64) (models.CompliancePair, error) {
	fg, err := models.ParsePath(foreground)
	if err != nil {
		return models.CompliancePair{}, err
	}
	bg, err := models.ParsePath(background)
	if err != nil {
		return models.CompliancePair{}, err
	}
	return e.watcher.Register(fg, bg, minimumRatio)
}

// RunComplianceScan evaluates every registered pair now.
func (e *Engine) RunComplianceScan(ctx context.Context) []models.ComplianceResult {
	return e.watcher.Scan(ctx)
}

// CompliancePairs returns the registered pairs.
func (e *Engine) CompliancePairs() []models.CompliancePair {
	return e.watcher.Pairs()
}

// OnChange subscribes to change events for paths under pathPrefix (empty
// matches everything). It returns an unsubscribe function.
func (e *Engine) OnChange(pathPrefix string, fn func(models.ChangeEvent)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("callback is required")
	}
	id := "onchange-" + uuid.New().String()
	err := e.store.Subscribe(id, func(event models.ChangeEvent) {
		if pathPrefix != "" && !pathHasPrefix(event.Path, pathPrefix) {
			return
		}
		fn(event)
	})
	if err != nil {
		return nil, err
	}
	return func() { e.store.Unsubscribe(id) }, nil
}

// ExternalNames returns every output variable name that aliases a path.
func (e *Engine) ExternalNames(path string) ([]string, error) {
	parsed, err := models.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return e.mapper.ExternalNames(parsed), nil
}

// LookupName maps an external variable name back to a token path, trying
// the alias scheme before the scale-index scheme.
func (e *Engine) LookupName(name string) (models.Path, bool) {
	return e.mapper.FromExternal(name)
}

// Export captures the engine's state as a persistable document.
func (e *Engine) Export() *persist.Document {
	return &persist.Document{
		Tokens:    e.store.Tokens(),
		Families:  e.mapper.Snapshot(),
		Overrides: e.store.Overrides(),
		Pairs:     e.watcher.Pairs(),
	}
}

// Import loads a document into the engine: families first so the index
// scheme is stable, then atomic scales, then loose tokens, overrides and
// pairs. One compliance tick covers the whole import.
func (e *Engine) Import(ctx context.Context, doc *persist.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}

	if len(doc.Families) > 0 {
		// Restore keeps retired indexes so the scale-index scheme stays
		// stable across a round trip.
		e.mapper.Restore(doc.Families)
	}
	for _, scale := range doc.Scales {
		if err := e.store.WriteScale(scale); err != nil {
			return fmt.Errorf("import scale %q: %w", scale.Alias, err)
		}
		e.mapper.RegisterFamily(scale.Alias)
	}
	for _, token := range doc.Tokens {
		if err := e.store.SetWithID(token.Path, token.Raw, token.ID); err != nil {
			return fmt.Errorf("import token %s: %w", token.Path, err)
		}
	}
	for key, literal := range doc.Overrides {
		path, err := models.ParsePath(key)
		if err != nil {
			return fmt.Errorf("import override %q: %w", key, err)
		}
		if err := e.store.SetOverride(path, literal); err != nil {
			return fmt.Errorf("import override %q: %w", key, err)
		}
	}
	for _, pair := range doc.Pairs {
		if _, err := e.watcher.Restore(pair); err != nil {
			return fmt.Errorf("import pair %s/%s: %w", pair.Foreground, pair.Background, err)
		}
	}

	e.tick(ctx)
	return nil
}

// uniqueAlias suffixes alias until it does not collide with a registered
// family: gray, gray-2, gray-3, ...
func (e *Engine) uniqueAlias(alias string) string {
	if !e.mapper.Registered(alias) {
		return alias
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", alias, i)
		if !e.mapper.Registered(candidate) {
			return candidate
		}
	}
}

// tick runs one compliance pass over the writes the current call produced.
func (e *Engine) tick(ctx context.Context) {
	if !e.cfg.AutoScan {
		return
	}
	results := e.watcher.Tick(ctx)
	for _, result := range results {
		if result.Status == models.CompliancePass && result.AppliedFix == nil {
			continue
		}
		e.logger.Info().
			Str("pair", result.Pair.ID).
			Str("status", string(result.Status)).
			Float64("ratio", result.Ratio).
			Msg("compliance evaluated")
	}
}

func (e *Engine) recordTokenSet(ctx context.Context, path models.Path, oldValue, newValue string) {
	e.record(ctx, models.EventTypeTokenSet, models.EntityTypeToken, path.String(), models.TokenSetPayload{
		OldValue: oldValue,
		NewValue: newValue,
	})
}

func (e *Engine) record(ctx context.Context, eventType models.EventType, entityType models.EntityType, entityID string, payload any) {
	if err := events.Record(ctx, e.recorder, eventType, entityType, entityID, payload); err != nil {
		e.logger.Warn().Err(err).Msg("failed to record event")
	}
}

func pathHasPrefix(path models.Path, prefix string) bool {
	full := path.String()
	if full == prefix {
		return true
	}
	return strings.HasPrefix(full, prefix+".")
}
