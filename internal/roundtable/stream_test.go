package roundtable_test

import (
	"strings"
	"testing"

	"github.com/tradepsych/coach-web-ui/internal/roundtable"
)

func TestEventsDecodesStream(t *testing.T) {
	raw := strings.Join([]string{
		"event: round_start",
		`data: {"round":1}`,
		"",
		"event: coach_start",
		`data: {"coach_id":"zen","coach_name":"Zen Trader","coach_avatar":"zen.png"}`,
		"",
		"event: content",
		`data: {"coach_id":"zen","content":"Stay "}`,
		"",
		"event: content",
		`data: {"coach_id":"zen","content":"calm."}`,
		"",
		"event: coach_end",
		`data: {"coach_id":"zen"}`,
		"",
		"event: round_end",
		`data: {"round":1}`,
		"",
		"event: done",
		"data: {}",
		"",
	}, "\n") + "\n"

	var events []roundtable.Event
	for ev, err := range roundtable.Events(strings.NewReader(raw)) {
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		events = append(events, ev)
	}

	wantTypes := []roundtable.EventType{
		roundtable.EventRoundStart,
		roundtable.EventCoachStart,
		roundtable.EventContent,
		roundtable.EventContent,
		roundtable.EventCoachEnd,
		roundtable.EventRoundEnd,
		roundtable.EventDone,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event[%d].Type = %q, want %q", i, events[i].Type, want)
		}
	}
	if events[1].CoachName != "Zen Trader" || events[1].CoachAvatar != "zen.png" {
		t.Errorf("coach_start fields = %+v", events[1])
	}
	if events[2].Content != "Stay " || events[3].Content != "calm." {
		t.Errorf("content deltas = %q, %q", events[2].Content, events[3].Content)
	}
}

func TestEventsSkipsUnknownTypes(t *testing.T) {
	raw := strings.Join([]string{
		"event: heartbeat",
		"data: {}",
		"",
		"event: done",
		"data: {}",
		"",
	}, "\n") + "\n"

	var events []roundtable.Event
	for ev, err := range roundtable.Events(strings.NewReader(raw)) {
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 1 || events[0].Type != roundtable.EventDone {
		t.Errorf("events = %+v, want only done", events)
	}
}

func TestEventsStopsAfterError(t *testing.T) {
	raw := strings.Join([]string{
		"event: error",
		`data: {"message":"coach unavailable"}`,
		"",
		"event: content",
		`data: {"coach_id":"zen","content":"never seen"}`,
		"",
	}, "\n") + "\n"

	var events []roundtable.Event
	for ev, err := range roundtable.Events(strings.NewReader(raw)) {
		if err != nil {
			t.Fatalf("Events() error = %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Message != "coach unavailable" {
		t.Errorf("error message = %q", events[0].Message)
	}
}

func TestDecodeEventRejectsUnknownName(t *testing.T) {
	if _, err := roundtable.DecodeEvent("bogus", "{}"); err == nil {
		t.Error("DecodeEvent(bogus) error = nil, want ErrUnknownEvent")
	}
}
