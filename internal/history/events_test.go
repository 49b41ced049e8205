package history

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/events"
)

var _ events.Recorder = (*Store)(nil)

func TestRecordAndListEvents(t *testing.T) {
	s := openTestStore(t)

	iteration := 2
	evt := events.Event{
		Time:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:      events.LoopIterationAdvanced,
		Session:   "sess-1",
		Iteration: &iteration,
		Payload:   map[string]interface{}{"phase": "plan_review"},
	}
	if err := s.Record(evt); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(events.Event{Type: events.ReviewStarted}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := s.ListEvents("", 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}

	first := got[0]
	if first.Type != events.LoopIterationAdvanced {
		t.Errorf("expected type %q, got %q", events.LoopIterationAdvanced, first.Type)
	}
	if first.Session != "sess-1" {
		t.Errorf("expected session to be %q, got %q", "sess-1", first.Session)
	}
	if first.Iteration == nil || *first.Iteration != 2 {
		t.Errorf("expected iteration to be 2, got %v", first.Iteration)
	}
	wantPayload := map[string]interface{}{"phase": "plan_review"}
	if !reflect.DeepEqual(first.Payload, wantPayload) {
		t.Errorf("expected payload to be %v, got %v", wantPayload, first.Payload)
	}
	if first.Time.Unix() != evt.Time.Unix() {
		t.Errorf("expected event time to round-trip, got %v", first.Time)
	}

	second := got[1]
	if second.Session != "" || second.Iteration != nil || second.Payload != nil {
		t.Errorf("expected optional fields to stay empty, got %+v", second)
	}
	if second.Time.IsZero() {
		t.Error("expected a zero event time to be stamped on insert")
	}
}

func TestRecord_PersistsError(t *testing.T) {
	s := openTestStore(t)

	evt := events.NewEvent(events.DebateFailed, "sess-9").
		WithError(errors.New("all critics failed"))
	if err := s.Record(evt); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := s.ListEvents("sess-9", 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Error != "all critics failed" {
		t.Errorf("expected error text to round-trip, got %q", got[0].Error)
	}
}

func TestListEvents_FilterBySession(t *testing.T) {
	s := openTestStore(t)

	for _, session := range []string{"a", "a", "b"} {
		if err := s.Record(events.NewEvent(events.ReviewStarted, session)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.ListEvents("a", 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events for session a, got %d", len(got))
	}
}

func TestListEvents_Limit(t *testing.T) {
	s := openTestStore(t)

	types := []events.EventType{
		events.WorkflowStarted,
		events.ReviewStarted,
		events.ReviewCompleted,
	}
	for _, typ := range types {
		if err := s.Record(events.Event{Type: typ}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.ListEvents("", 2)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events with limit, got %d", len(got))
	}
	if got[0].Type != events.WorkflowStarted || got[1].Type != events.ReviewStarted {
		t.Errorf("expected append order, got %q then %q", got[0].Type, got[1].Type)
	}
}
