// Package store owns the mutable token graph: base definitions, the
// override layer, resolution caching, and change notifications.
//
// The store is not safe for concurrent use. The engine confines all writes
// to a single goroutine; callers embedding the store directly must do the
// same.
package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/tint/internal/logging"
	"github.com/opencode-ai/tint/internal/models"
)

// Store errors.
var (
	ErrUnresolvedReference = errors.New("unresolved token reference")
	ErrCycleDetected       = errors.New("token reference cycle detected")
	ErrTokenNotFound       = errors.New("token not found")
	ErrStaleWrite          = errors.New("write superseded by a newer edit")
	ErrScaleIncomplete     = errors.New("color scale is incomplete")
	ErrOverrideReference   = errors.New("override values must be literals")
	ErrDuplicateSubscriber = errors.New("subscriber id already registered")
)

// Subscriber receives change notifications for every store write.
type Subscriber func(models.ChangeEvent)

// Store holds the token definition graph and its override layer.
type Store struct {
	logger zerolog.Logger

	tokens    map[string]*models.Token
	overrides map[string]string
	versions  map[string]uint64

	// resolved memoizes successful resolutions per path. Invalidation is
	// conservative: any write clears the whole cache.
	resolved map[string]Resolved

	subscribers map[string]Subscriber
}

// New creates an empty token store.
func New() *Store {
	return &Store{
		logger:      logging.Component("store"),
		tokens:      make(map[string]*models.Token),
		overrides:   make(map[string]string),
		versions:    make(map[string]uint64),
		resolved:    make(map[string]Resolved),
		subscribers: make(map[string]Subscriber),
	}
}

// Set writes a literal or reference at path. Any override at the same path
// is cleared, cached resolutions are invalidated, and subscribers are
// notified with the old and new raw values.
func (s *Store) Set(path models.Path, raw string) error {
	return s.set(path, raw, "")
}

// SetWithID writes raw at path and adopts id as the token's internal ID,
// so identities survive an export/import round trip. An empty id keeps
// Set semantics: the existing ID is reused, or a fresh one is minted for
// a new path.
func (s *Store) SetWithID(path models.Path, raw, id string) error {
	return s.set(path, raw, id)
}

func (s *Store) set(path models.Path, raw, id string) error {
	if len(path) == 0 {
		return fmt.Errorf("token path is required")
	}

	key := path.String()
	token := &models.Token{
		ID:   id,
		Path: path,
		Kind: inferKind(raw),
		Raw:  raw,
	}
	if token.ID == "" {
		if existing, ok := s.tokens[key]; ok {
			token.ID = existing.ID
		} else {
			token.ID = uuid.New().String()
		}
	}
	if err := token.Validate(); err != nil {
		return fmt.Errorf("invalid token at %s: %w", key, err)
	}

	oldValue := s.effectiveRaw(key)
	delete(s.overrides, key)
	s.tokens[key] = token
	s.bumpAndNotify(path, oldValue, raw)
	return nil
}

// SetVersioned writes raw at path only if the path's version still equals
// baseVersion. It returns ErrStaleWrite when a newer edit has landed since
// baseVersion was observed; the caller must discard the write.
func (s *Store) SetVersioned(path models.Path, raw string, baseVersion uint64) error {
	if s.versions[path.String()] != baseVersion {
		return fmt.Errorf("%w: %s", ErrStaleWrite, path)
	}
	return s.Set(path, raw)
}

// Version returns the current write version for path. Zero means the path
// has never been written.
func (s *Store) Version(path models.Path) uint64 {
	return s.versions[path.String()]
}

// SetOverride shadows the base definition at path with a literal value.
// The base token must exist and the value may not be a reference.
func (s *Store) SetOverride(path models.Path, literal string) error {
	key := path.String()
	if _, ok := s.tokens[key]; !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, key)
	}
	if models.IsReference(literal) {
		return fmt.Errorf("%w: %s", ErrOverrideReference, key)
	}

	oldValue := s.effectiveRaw(key)
	s.overrides[key] = literal
	s.bumpAndNotify(path, oldValue, literal)
	return nil
}

// ClearOverride removes the override at path, if any.
func (s *Store) ClearOverride(path models.Path) {
	key := path.String()
	if _, ok := s.overrides[key]; !ok {
		return
	}
	oldValue := s.effectiveRaw(key)
	delete(s.overrides, key)
	s.bumpAndNotify(path, oldValue, s.effectiveRaw(key))
}

// Get returns a copy of the base token at path.
func (s *Store) Get(path models.Path) (models.Token, bool) {
	token, ok := s.tokens[path.String()]
	if !ok {
		return models.Token{}, false
	}
	return *token, true
}

// Tokens returns copies of all base tokens, sorted by canonical path.
func (s *Store) Tokens() []models.Token {
	out := make([]models.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, *token)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path.String() < out[j].Path.String()
	})
	return out
}

// Overrides returns a copy of the override layer keyed by canonical path.
func (s *Store) Overrides() map[string]string {
	out := make(map[string]string, len(s.overrides))
	for key, value := range s.overrides {
		out[key] = value
	}
	return out
}

// WriteScale writes all twelve steps of a color scale. Scales are created
// and replaced atomically: the scale is validated before any step lands.
func (s *Store) WriteScale(scale models.ColorScale) error {
	if err := scale.Validate(); err != nil {
		return fmt.Errorf("invalid scale %q: %w", scale.Alias, err)
	}
	for i, hex := range scale.Hex {
		path := models.ScaleStepPath(scale.Alias, models.StepAt(i))
		if err := s.Set(path, hex); err != nil {
			return err
		}
	}
	return nil
}

// Scale reads the twelve steps of a family back out of the store.
// Steps are resolved, so referenced or overridden shades come back as
// their effective hex values.
func (s *Store) Scale(family string) (models.ColorScale, error) {
	scale := models.ColorScale{Alias: family}
	for i := range models.ScaleSteps {
		path := models.ScaleStepPath(family, models.StepAt(i))
		res, err := s.Resolve(path)
		if err != nil {
			return models.ColorScale{}, fmt.Errorf("%w: %s: %v", ErrScaleIncomplete, family, err)
		}
		scale.Hex[i] = res.Value
	}
	return scale, nil
}

// DeleteScale removes all twelve steps of a family together.
func (s *Store) DeleteScale(family string) {
	for i := range models.ScaleSteps {
		path := models.ScaleStepPath(family, models.StepAt(i))
		key := path.String()
		if _, ok := s.tokens[key]; !ok {
			continue
		}
		oldValue := s.effectiveRaw(key)
		delete(s.overrides, key)
		delete(s.tokens, key)
		s.bumpAndNotify(path, oldValue, "")
	}
}

// Subscribe registers a change subscriber under a unique id.
func (s *Store) Subscribe(id string, fn Subscriber) error {
	if id == "" || fn == nil {
		return fmt.Errorf("subscriber id and callback are required")
	}
	if _, ok := s.subscribers[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSubscriber, id)
	}
	s.subscribers[id] = fn
	return nil
}

// Unsubscribe removes a change subscriber.
func (s *Store) Unsubscribe(id string) {
	delete(s.subscribers, id)
}

// effectiveRaw returns the value resolution starts from at key: the
// override when present, otherwise the base raw value.
func (s *Store) effectiveRaw(key string) string {
	if value, ok := s.overrides[key]; ok {
		return value
	}
	if token, ok := s.tokens[key]; ok {
		return token.Raw
	}
	return ""
}

func (s *Store) bumpAndNotify(path models.Path, oldValue, newValue string) {
	key := path.String()
	s.versions[key]++
	s.invalidate()

	event := models.ChangeEvent{
		Path:     path,
		OldValue: oldValue,
		NewValue: newValue,
		Version:  s.versions[key],
	}

	s.logger.Debug().
		Str("path", key).
		Str("new_value", newValue).
		Uint64("version", event.Version).
		Msg("token written")

	// Deterministic fan-out order.
	ids := make([]string, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.subscribers[id](event)
	}
}
