package models

import "time"

// Coach is a configured AI persona served by the backend.
type Coach struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Style        string `json:"style"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	IsCustom     bool   `json:"is_custom"`
}

// DiscussionMode controls how a multi-coach session takes turns.
type DiscussionMode string

const (
	// ModeFree lets every participant speak each round without a moderator.
	ModeFree DiscussionMode = "free"
	// ModeModerated adds opening/summary/closing turns by a moderator coach.
	ModeModerated DiscussionMode = "moderated"
)

// Session identifies a conversation with one or more coaches. The backend owns
// the session; the client holds a read-only cached copy plus its messages.
type Session struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	CoachIDs     []string       `json:"coach_ids"`
	Mode         DiscussionMode `json:"mode"`
	ModeratorID  string         `json:"moderator_id,omitempty"`
	ProjectID    string         `json:"project_id,omitempty"`
	MessageCount int            `json:"message_count"`
	RoundCount   int            `json:"round_count"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Role represents the role of a message participant.
type Role string

// MessageType classifies a turn within a roundtable discussion.
type MessageType string

const (
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents a coach or moderator message.
	RoleAssistant Role = "assistant"

	// MessageTypeOpening is the moderator's framing turn at the start of a round.
	MessageTypeOpening MessageType = "opening"
	// MessageTypeResponse is a regular coach turn.
	MessageTypeResponse MessageType = "response"
	// MessageTypeSummary is the moderator's recap between rounds.
	MessageTypeSummary MessageType = "summary"
	// MessageTypeClosing is the moderator's final turn.
	MessageTypeClosing MessageType = "closing"
)

// Streaming states rendered into message templates so the frontend script can
// decide whether to keep an SSE subscription open for a message.
const (
	StreamingStateLoading   = "loading"
	StreamingStateStreaming = "streaming"
	StreamingStateEnded     = "ended"
)

// Message is an individual entry within a session transcript. Content
// accumulates incrementally while the owning speaker is streaming and is
// immutable once finalized.
type Message struct {
	ID          string      `json:"id"`
	Role        Role        `json:"role"`
	CoachID     string      `json:"coach_id,omitempty"`
	CoachName   string      `json:"coach_name,omitempty"`
	CoachAvatar string      `json:"coach_avatar,omitempty"`
	Content     string      `json:"content"`
	Type        MessageType `json:"message_type,omitempty"`
	Round       int         `json:"round"`
	Sequence    int         `json:"sequence"`
	Attachments []string    `json:"attachments,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`

	StreamingState string `json:"-"`
}

// LLMConfig is the backend's active model configuration, editable from the
// settings page.
type LLMConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// LLMProvider describes one selectable provider and its models.
type LLMProvider struct {
	Name   string   `json:"name"`
	Models []string `json:"models"`
}
