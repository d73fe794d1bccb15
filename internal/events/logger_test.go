package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opencode-ai/tint/internal/models"
)

type fakeRecorder struct {
	last *models.Event
}

func (r *fakeRecorder) Record(ctx context.Context, event *models.Event) error {
	r.last = event
	return nil
}

func TestRecord(t *testing.T) {
	recorder := &fakeRecorder{}

	err := Record(context.Background(), recorder, models.EventTypeTokenSet, models.EntityTypeToken, "colors.blue.500", models.TokenSetPayload{
		OldValue: "#000000",
		NewValue: "#4169e1",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if recorder.last == nil {
		t.Fatal("expected event to be recorded")
	}
	if recorder.last.Type != models.EventTypeTokenSet {
		t.Fatalf("unexpected event type: %q", recorder.last.Type)
	}
	if recorder.last.EntityID != "colors.blue.500" {
		t.Fatalf("unexpected entity id: %q", recorder.last.EntityID)
	}

	var payload models.TokenSetPayload
	if err := json.Unmarshal(recorder.last.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.NewValue != "#4169e1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRecordNilRecorderIsNoop(t *testing.T) {
	err := Record(context.Background(), nil, models.EventTypeTokenSet, models.EntityTypeToken, "colors.blue.500", nil)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}

func TestBuildWithoutPayload(t *testing.T) {
	event, err := Build(models.EventTypeScaleDeleted, models.EntityTypeScale, "blue", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if event.Payload != nil {
		t.Fatalf("expected no payload, got %s", event.Payload)
	}
}
