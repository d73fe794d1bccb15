package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes entries in the change log.
type EventType string

const (
	// Token events
	EventTypeTokenSet        EventType = "token.set"
	EventTypeOverrideSet     EventType = "override.set"
	EventTypeOverrideCleared EventType = "override.cleared"

	// Scale events
	EventTypeScaleSynthesized EventType = "scale.synthesized"
	EventTypeScaleCascaded    EventType = "scale.cascaded"
	EventTypeScaleDeleted     EventType = "scale.deleted"

	// Compliance events
	EventTypeComplianceViolation     EventType = "compliance.violation"
	EventTypeComplianceFixed         EventType = "compliance.fixed"
	EventTypeComplianceUnsatisfiable EventType = "compliance.unsatisfiable"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeToken EntityType = "token"
	EntityTypeScale EntityType = "scale"
	EntityTypePair  EntityType = "pair"
)

// Event represents an append-only change-log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the canonical path or pair ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// TokenSetPayload is the payload for token.set events.
type TokenSetPayload struct {
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value"`
}

// OverrideSetPayload is the payload for override.set events.
type OverrideSetPayload struct {
	Value string `json:"value"`
}

// ScaleCascadedPayload is the payload for scale.cascaded events.
type ScaleCascadedPayload struct {
	Family       string `json:"family"`
	EditedStep   string `json:"edited_step"`
	EditedHex    string `json:"edited_hex"`
	CascadeDown  bool   `json:"cascade_down"`
	CascadeUp    bool   `json:"cascade_up"`
	StepsWritten int    `json:"steps_written"`
}

// ComplianceViolationPayload is the payload for compliance.violation
// events, recorded when a pair is found under its minimum, before any fix
// is attempted.
type ComplianceViolationPayload struct {
	PairID  string  `json:"pair_id"`
	Ratio   float64 `json:"ratio"`
	Minimum float64 `json:"minimum"`
}

// ComplianceFixedPayload is the payload for compliance.fixed events.
type ComplianceFixedPayload struct {
	PairID   string  `json:"pair_id"`
	Path     string  `json:"path"`
	NewValue string  `json:"new_value"`
	Ratio    float64 `json:"ratio"`
}

// ComplianceUnsatisfiablePayload is the payload for
// compliance.unsatisfiable events.
type ComplianceUnsatisfiablePayload struct {
	PairID    string  `json:"pair_id"`
	BestRatio float64 `json:"best_ratio"`
	Minimum   float64 `json:"minimum"`
}
