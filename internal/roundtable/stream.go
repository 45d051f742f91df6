package roundtable

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/tmaxmax/go-sse"
)

// Events reads the roundtable SSE stream from r and yields typed events. The
// iterator stops after a done or error event, a decode failure, or when r is
// exhausted; frames with unknown event names are skipped so the backend can
// add vocabulary without breaking older clients. Cancelling the request
// context that produced r terminates the iteration through the read error.
func Events(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for frame, err := range sse.Read(r, nil) {
			if err != nil {
				yield(Event{}, fmt.Errorf("error reading stream: %w", err))
				return
			}

			ev, err := DecodeEvent(frame.Type, frame.Data)
			if err != nil {
				if errors.Is(err, ErrUnknownEvent) {
					continue
				}
				yield(Event{}, err)
				return
			}

			if !yield(ev, nil) {
				return
			}
			if ev.Type == EventDone || ev.Type == EventError {
				return
			}
		}
	}
}
