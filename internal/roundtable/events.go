// Package roundtable coordinates multi-coach streaming discussions. It turns
// the backend's server-sent events into an ordered transcript through a pure
// state machine that can be exercised without any network dependency.
package roundtable

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// ErrUnknownEvent marks a frame whose event name is not part of the known
// vocabulary. Stream readers skip these instead of failing.
var ErrUnknownEvent = errors.New("unknown event type")

// EventType enumerates the backend's roundtable stream vocabulary.
type EventType string

const (
	EventRoundStart     EventType = "round_start"
	EventCoachStart     EventType = "coach_start"
	EventContent        EventType = "content"
	EventCoachEnd       EventType = "coach_end"
	EventRoundEnd       EventType = "round_end"
	EventModeratorStart EventType = "moderator_start"
	EventModeratorEnd   EventType = "moderator_end"
	EventDone           EventType = "done"
	EventError          EventType = "error"
)

// Event is one decoded frame of the roundtable stream. Fields are populated
// according to Type: Round for round events, the coach fields for speaker
// events, Content for deltas, MessageType for moderator turns, and Message
// for stream errors.
type Event struct {
	Type EventType

	Round       int
	CoachID     string
	CoachName   string
	CoachAvatar string
	Content     string
	MessageType models.MessageType
	Message     string
}

type eventPayload struct {
	Round       int                `json:"round"`
	CoachID     string             `json:"coach_id"`
	CoachName   string             `json:"coach_name"`
	CoachAvatar string             `json:"coach_avatar"`
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"message_type"`
	Message     string             `json:"message"`
}

// DecodeEvent parses one SSE frame into a typed Event. The frame's event name
// selects the type and the data field carries a JSON payload; done events may
// carry no payload at all.
func DecodeEvent(name, data string) (Event, error) {
	typ := EventType(name)
	switch typ {
	case EventRoundStart, EventCoachStart, EventContent, EventCoachEnd,
		EventRoundEnd, EventModeratorStart, EventModeratorEnd, EventDone, EventError:
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	ev := Event{Type: typ}
	if data == "" {
		return ev, nil
	}

	var payload eventPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return Event{}, fmt.Errorf("failed to decode %s payload: %w", name, err)
	}

	ev.Round = payload.Round
	ev.CoachID = payload.CoachID
	ev.CoachName = payload.CoachName
	ev.CoachAvatar = payload.CoachAvatar
	ev.Content = payload.Content
	ev.MessageType = payload.MessageType
	ev.Message = payload.Message
	return ev, nil
}
