package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// CreateCoachRequest describes a user-defined coach persona.
type CreateCoachRequest struct {
	Name         string `json:"name"`
	Style        string `json:"style"`
	Description  string `json:"description,omitempty"`
	SystemPrompt string `json:"system_prompt"`
}

// CreateSessionRequest opens a conversation with one or more coaches.
type CreateSessionRequest struct {
	CoachIDs    []string              `json:"coach_ids"`
	Mode        models.DiscussionMode `json:"mode"`
	ModeratorID string                `json:"moderator_id,omitempty"`
	ProjectID   string                `json:"project_id,omitempty"`
	Title       string                `json:"title,omitempty"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// Coaches lists the marketplace of available personas.
func (c *Client) Coaches(ctx context.Context) ([]models.Coach, error) {
	var coaches []models.Coach
	err := c.do(ctx, http.MethodGet, "/coaches", nil, nil, &coaches)
	return coaches, err
}

// CreateCustomCoach registers a user-defined persona.
func (c *Client) CreateCustomCoach(ctx context.Context, req CreateCoachRequest) (models.Coach, error) {
	var coach models.Coach
	err := c.do(ctx, http.MethodPost, "/coaches/custom", nil, req, &coach)
	return coach, err
}

// Sessions lists the caller's conversations, optionally scoped to a project.
func (c *Client) Sessions(ctx context.Context, projectID string) ([]models.Session, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	var sessions []models.Session
	err := c.do(ctx, http.MethodGet, "/coaches/sessions", q, nil, &sessions)
	return sessions, err
}

// CreateSession opens a new conversation.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (models.Session, error) {
	var session models.Session
	err := c.do(ctx, http.MethodPost, "/coaches/sessions", nil, req, &session)
	return session, err
}

// Session fetches one conversation's metadata.
func (c *Client) Session(ctx context.Context, id string) (models.Session, error) {
	var session models.Session
	err := c.do(ctx, http.MethodGet, "/coaches/sessions/"+id, nil, nil, &session)
	return session, err
}

// DeleteSession removes a conversation and its transcript.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/coaches/sessions/"+id, nil, nil, nil)
}

// SessionMessages fetches the materialized transcript of a session.
func (c *Client) SessionMessages(ctx context.Context, id string) ([]models.Message, error) {
	var messages []models.Message
	err := c.do(ctx, http.MethodGet, "/coaches/sessions/"+id+"/messages", nil, nil, &messages)
	return messages, err
}

// PostSessionMessage submits a user message to a session. The coach replies
// arrive over the roundtable stream, not in this response.
func (c *Client) PostSessionMessage(ctx context.Context, id, content string) (models.Message, error) {
	var message models.Message
	err := c.do(ctx, http.MethodPost, "/coaches/sessions/"+id+"/messages", nil, postMessageRequest{Content: content}, &message)
	return message, err
}

// OpenRoundtable starts the streaming discussion for a session and returns
// the raw SSE body. The caller must close it and should feed it through
// roundtable.Events.
func (c *Client) OpenRoundtable(ctx context.Context, sessionID string) (io.ReadCloser, error) {
	return c.stream(ctx, http.MethodPost, "/coaches/sessions/"+sessionID+"/roundtable", nil)
}
