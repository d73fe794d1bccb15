// Package events provides helpers for building and recording audit events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencode-ai/tint/internal/models"
)

// Recorder is the minimal interface needed to append events to the change
// log.
type Recorder interface {
	Record(ctx context.Context, event *models.Event) error
}

// Build constructs an event with a JSON-encoded payload. A nil payload
// produces an event without one.
func Build(eventType models.EventType, entityType models.EntityType, entityID string, payload any) (*models.Event, error) {
	event := &models.Event{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		event.Payload = data
	}
	return event, nil
}

// Record builds an event and appends it via recorder. A nil recorder is a
// no-op.
func Record(ctx context.Context, recorder Recorder, eventType models.EventType, entityType models.EntityType, entityID string, payload any) error {
	if recorder == nil {
		return nil
	}
	event, err := Build(eventType, entityType, entityID, payload)
	if err != nil {
		return err
	}
	return recorder.Record(ctx, event)
}
