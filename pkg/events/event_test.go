package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := NewBaseEvent("AnalysisCompleted", aggregateID, "Analysis")
	after := time.Now().UTC()

	if event.EventID() == uuid.Nil {
		t.Error("expected non-nil event ID")
	}
	if event.EventType() != "AnalysisCompleted" {
		t.Errorf("expected event type %q, got %q", "AnalysisCompleted", event.EventType())
	}
	if event.AggregateID() != aggregateID {
		t.Errorf("expected aggregate ID %v, got %v", aggregateID, event.AggregateID())
	}
	if event.AggregateType() != "Analysis" {
		t.Errorf("expected aggregate type %q, got %q", "Analysis", event.AggregateType())
	}
	if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
		t.Errorf("occurredAt %v outside [%v, %v]", event.OccurredAt(), before, after)
	}
}

func TestEventCollector(t *testing.T) {
	var c EventCollector

	if len(c.Events()) != 0 {
		t.Fatal("expected empty collector")
	}

	e1 := NewBaseEvent("First", uuid.New(), "Analysis")
	e2 := NewBaseEvent("Second", uuid.New(), "Analysis")
	c.Record(e1)
	c.Record(e2)

	if got := len(c.Events()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}

	drained := c.ClearEvents()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained events, got %d", len(drained))
	}
	if len(c.Events()) != 0 {
		t.Error("expected collector to be empty after ClearEvents")
	}
	if drained[0].EventType() != "First" || drained[1].EventType() != "Second" {
		t.Error("drained events out of order")
	}
}
