package store

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/opencode-ai/tint/internal/models"
)

// Resolved is the terminal literal a token path resolves to, plus its kind.
type Resolved struct {
	Kind  models.Kind
	Value string
}

// Resolve walks the reference chain starting at path until it reaches a
// literal. Revisiting a path within one walk returns ErrCycleDetected;
// reaching an undefined path returns ErrUnresolvedReference. Neither error
// affects resolution of other tokens.
func (s *Store) Resolve(path models.Path) (Resolved, error) {
	key := path.String()
	if res, ok := s.resolved[key]; ok {
		return res, nil
	}

	visited := make(map[string]struct{})
	current := path
	for {
		currentKey := current.String()
		if _, seen := visited[currentKey]; seen {
			return Resolved{}, fmt.Errorf("%w: via %s", ErrCycleDetected, currentKey)
		}
		visited[currentKey] = struct{}{}

		raw, ok := s.rawAt(currentKey)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %s", ErrUnresolvedReference, currentKey)
		}

		if target, isRef := models.ReferenceTarget(raw); isRef {
			current = target
			continue
		}

		res := Resolved{Kind: inferKind(raw), Value: raw}
		s.resolved[key] = res
		return res, nil
	}
}

// rawAt returns the effective raw value at a canonical path key:
// the override layer shadows the base definition.
func (s *Store) rawAt(key string) (string, bool) {
	if value, ok := s.overrides[key]; ok {
		return value, true
	}
	if token, ok := s.tokens[key]; ok {
		return token.Raw, true
	}
	return "", false
}

// invalidate drops all memoized resolutions. Precise dependency tracking
// is not worth the bookkeeping at this graph size; any write clears the
// cache and resolutions recompute on demand.
func (s *Store) invalidate() {
	if len(s.resolved) == 0 {
		return
	}
	s.resolved = make(map[string]Resolved)
}

var (
	hexPattern       = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	dimensionPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:px|pt|em|rem|vh|vw|%)$`)
)

// inferKind classifies a literal raw value. References report no kind;
// their kind is the terminal literal's.
func inferKind(raw string) models.Kind {
	if models.IsReference(raw) {
		return ""
	}
	if hexPattern.MatchString(raw) {
		return models.KindColor
	}
	if dimensionPattern.MatchString(raw) {
		return models.KindDimension
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return models.KindNumber
	}
	return models.KindString
}
