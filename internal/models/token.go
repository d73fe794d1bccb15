// Package models defines the core data types for the tint token engine.
package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the value type a token resolves to.
type Kind string

const (
	KindColor     Kind = "color"
	KindDimension Kind = "dimension"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
)

// ValidKind reports whether k is one of the known token kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindColor, KindDimension, KindNumber, KindString:
		return true
	}
	return false
}

// Path is the ordered sequence of segments that identifies a token.
// The canonical string form joins segments with dots, e.g. "colors.cornflower.500".
type Path []string

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParsePath splits a dot-joined path string into segments.
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("token path is required")
	}
	segments := strings.Split(s, ".")
	for _, seg := range segments {
		if !segmentPattern.MatchString(seg) {
			return nil, fmt.Errorf("invalid path segment %q in %q", seg, s)
		}
	}
	return Path(segments), nil
}

// String returns the canonical dot-joined form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether two paths identify the same token.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// referencePattern matches a raw value that is a token reference,
// e.g. "{colors.cornflower.500}".
var referencePattern = regexp.MustCompile(`^\{([A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)*)\}$`)

// IsReference reports whether raw is a symbolic token reference.
func IsReference(raw string) bool {
	return referencePattern.MatchString(raw)
}

// ReferenceTarget extracts the referenced path from a raw reference value.
// The second return value is false when raw is not a reference.
func ReferenceTarget(raw string) (Path, bool) {
	m := referencePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return Path(strings.Split(m[1], ".")), true
}

// Token is a named, typed design value. Raw holds either a literal or a
// reference of the form "{a.b.c}" pointing at another token's path.
type Token struct {
	// ID is the stable internal identifier. External names alias the ID,
	// never duplicate the value.
	ID string `json:"id"`

	// Path identifies the token within the graph.
	Path Path `json:"path"`

	// Kind is the value type the token resolves to.
	Kind Kind `json:"kind"`

	// Raw is the literal value or a token reference.
	Raw string `json:"raw"`
}

// Validate checks if the token is well formed.
func (t *Token) Validate() error {
	validation := &ValidationErrors{}
	if len(t.Path) == 0 {
		validation.AddMessage("path", "token path is required")
	}
	for _, seg := range t.Path {
		if !segmentPattern.MatchString(seg) {
			validation.AddMessage("path", fmt.Sprintf("invalid segment %q", seg))
		}
	}
	// Reference tokens take their kind from the target at resolution time.
	if IsReference(t.Raw) {
		if t.Kind != "" && !ValidKind(t.Kind) {
			validation.AddMessage("kind", fmt.Sprintf("unknown kind %q", t.Kind))
		}
	} else if !ValidKind(t.Kind) {
		validation.AddMessage("kind", fmt.Sprintf("unknown kind %q", t.Kind))
	}
	if strings.TrimSpace(t.Raw) == "" {
		validation.AddMessage("raw", "raw value is required")
	}
	return validation.Err()
}

// IsReference reports whether the token's raw value points at another token.
func (t *Token) IsReference() bool {
	return IsReference(t.Raw)
}

// ChangeEvent describes one write to the token store.
type ChangeEvent struct {
	// Path is the token that changed.
	Path Path

	// OldValue is the raw value before the write; empty for new tokens.
	OldValue string

	// NewValue is the raw value after the write; empty for deletions.
	NewValue string

	// Version is the store's per-path version after the write. Versioned
	// writes use it to detect that an in-flight fix has been superseded.
	Version uint64
}
