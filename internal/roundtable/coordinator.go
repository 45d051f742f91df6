package roundtable

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

// Phase is the coordinator's lifecycle state.
type Phase int

const (
	// PhaseIdle is the state before the first round_start.
	PhaseIdle Phase = iota
	// PhaseRound means a round is active; speakers may open and close.
	PhaseRound
	// PhaseTerminal means the stream ended cleanly via done or Abort.
	PhaseTerminal
	// PhaseFailed means the stream ended with an error event.
	PhaseFailed
)

// accumulator is the ephemeral per-speaker buffer holding text while that
// speaker is streaming. At most one open accumulator exists per speaker id.
type accumulator struct {
	coachID     string
	coachName   string
	coachAvatar string
	msgType     models.MessageType
	round       int
	sequence    int
	content     strings.Builder
}

// Partial is a read-only snapshot of an in-flight speaker, used to render
// streaming placeholders.
type Partial struct {
	CoachID     string
	CoachName   string
	CoachAvatar string
	Content     string
	Round       int
}

// Coordinator folds roundtable events into an ordered transcript. It is a
// pure state machine: Apply never performs I/O and the caller drives it with
// whatever event source it has. Not safe for concurrent use.
type Coordinator struct {
	sessionID string

	phase   Phase
	round   int
	rounds  int
	nextSeq int
	errMsg  string

	// active is keyed by speaker id; interleaved speakers are allowed.
	active     map[string]*accumulator
	messages   []models.Message
	violations int
}

// NewCoordinator creates a coordinator for one session's stream.
func NewCoordinator(sessionID string) *Coordinator {
	return &Coordinator{
		sessionID: sessionID,
		active:    map[string]*accumulator{},
	}
}

// Phase returns the current lifecycle state.
func (c *Coordinator) Phase() Phase { return c.phase }

// Round returns the number of the round currently (or last) in progress.
func (c *Coordinator) Round() int { return c.round }

// Rounds returns how many rounds have started.
func (c *Coordinator) Rounds() int { return c.rounds }

// Err returns the message of the error event that failed the stream, if any.
func (c *Coordinator) Err() string { return c.errMsg }

// Violations counts tolerated protocol deviations: deltas for speakers with
// no open accumulator, end events with no matching start, reopening of an
// already-closed speaker, and events after the terminal state.
func (c *Coordinator) Violations() int { return c.violations }

// Done reports whether the stream reached a terminal state.
func (c *Coordinator) Done() bool {
	return c.phase == PhaseTerminal || c.phase == PhaseFailed
}

// Messages returns all finalized messages in finalization order.
func (c *Coordinator) Messages() []models.Message {
	return c.messages
}

// Partials snapshots the still-open accumulators, ordered by activation.
func (c *Coordinator) Partials() []Partial {
	accs := make([]*accumulator, 0, len(c.active))
	for _, acc := range c.active {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].sequence < accs[j].sequence })

	partials := make([]Partial, len(accs))
	for i, acc := range accs {
		partials[i] = Partial{
			CoachID:     acc.coachID,
			CoachName:   acc.coachName,
			CoachAvatar: acc.coachAvatar,
			Content:     acc.content.String(),
			Round:       acc.round,
		}
	}
	return partials
}

// Apply folds one event into the transcript and returns the messages this
// event finalized, in order. Protocol violations are tolerated and counted,
// never fatal; once the coordinator is terminal further events are ignored.
func (c *Coordinator) Apply(ev Event) []models.Message {
	if c.Done() {
		c.violations++
		return nil
	}

	switch ev.Type {
	case EventRoundStart:
		c.phase = PhaseRound
		c.round = ev.Round
		c.rounds++

	case EventCoachStart:
		c.open(ev, models.MessageTypeResponse)

	case EventModeratorStart:
		msgType := ev.MessageType
		if msgType == "" {
			msgType = models.MessageTypeSummary
		}
		c.open(ev, msgType)

	case EventContent:
		acc, ok := c.active[ev.CoachID]
		if !ok {
			// A delta with no open accumulator violates the protocol;
			// open one implicitly rather than dropping the text.
			c.violations++
			acc = c.openBare(ev.CoachID, models.MessageTypeResponse)
		}
		acc.content.WriteString(ev.Content)

	case EventCoachEnd, EventModeratorEnd:
		acc, ok := c.active[ev.CoachID]
		if !ok {
			// End without a matching start is a tolerated no-op.
			c.violations++
			return nil
		}
		delete(c.active, ev.CoachID)
		msg := c.finalize(acc)
		return []models.Message{msg}

	case EventRoundEnd:
		// Bookkeeping only; the coordinator stays ready for the next round.

	case EventDone:
		c.phase = PhaseTerminal
		return c.finalizeAll()

	case EventError:
		c.phase = PhaseFailed
		c.errMsg = ev.Message
		return c.finalizeAll()
	}

	return nil
}

// Abort force-finalizes every open accumulator with its partial content and
// moves the coordinator to the terminal state. Safe to call at any time,
// including after the stream already finished.
func (c *Coordinator) Abort() []models.Message {
	if c.Done() {
		return nil
	}
	c.phase = PhaseTerminal
	return c.finalizeAll()
}

func (c *Coordinator) open(ev Event, msgType models.MessageType) {
	if _, ok := c.active[ev.CoachID]; ok {
		// Duplicate start for an open speaker; keep the existing buffer.
		c.violations++
		return
	}
	acc := &accumulator{
		coachID:     ev.CoachID,
		coachName:   ev.CoachName,
		coachAvatar: ev.CoachAvatar,
		msgType:     msgType,
		round:       c.round,
		sequence:    c.nextSeq,
	}
	c.nextSeq++
	c.active[ev.CoachID] = acc
}

func (c *Coordinator) openBare(coachID string, msgType models.MessageType) *accumulator {
	acc := &accumulator{
		coachID:  coachID,
		msgType:  msgType,
		round:    c.round,
		sequence: c.nextSeq,
	}
	c.nextSeq++
	c.active[coachID] = acc
	return acc
}

func (c *Coordinator) finalize(acc *accumulator) models.Message {
	msg := models.Message{
		ID:             uuid.New().String(),
		Role:           models.RoleAssistant,
		CoachID:        acc.coachID,
		CoachName:      acc.coachName,
		CoachAvatar:    acc.coachAvatar,
		Content:        acc.content.String(),
		Type:           acc.msgType,
		Round:          acc.round,
		Sequence:       acc.sequence,
		Timestamp:      time.Now(),
		StreamingState: models.StreamingStateEnded,
	}
	c.messages = append(c.messages, msg)
	return msg
}

// finalizeAll flushes every open accumulator in activation order so no
// partial text is lost on done, error, or abort.
func (c *Coordinator) finalizeAll() []models.Message {
	accs := make([]*accumulator, 0, len(c.active))
	for _, acc := range c.active {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].sequence < accs[j].sequence })

	finalized := make([]models.Message, 0, len(accs))
	for _, acc := range accs {
		delete(c.active, acc.coachID)
		finalized = append(finalized, c.finalize(acc))
	}
	return finalized
}
