package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tmaxmax/go-sse"
	coachwebui "github.com/tradepsych/coach-web-ui"
	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
	"github.com/tradepsych/coach-web-ui/internal/services"
)

const errLoggerKey = "err"

const sessionsSSETopic = "sessions"

// SSE event types for real-time updates pushed to the browser.
var (
	sessionsSSEType = sse.Type("sessions")
	messagesSSEType = sse.Type("messages")
	errorSSEType    = sse.Type("streamError")
)

// streamHandle identifies one registered roundtable bridge. The generation
// number distinguishes a registration from its replacement so a finished
// bridge can only remove its own entry.
type streamHandle struct {
	gen    uint64
	cancel context.CancelFunc
}

// Main handles the web application's pages. It composes the auth, locale and
// project stores with the backend API client, renders embedded templates, and
// bridges backend roundtable streams to the browser over SSE.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	api      *api.Client
	auth     *services.AuthSession
	locale   *services.LocaleStore
	projects services.ProjectStore
	store    services.BoltDB

	logger *slog.Logger

	streamsMu sync.Mutex
	streams   map[string]streamHandle
	streamGen uint64
}

// NewMain creates a Main instance, parsing the embedded HTML templates and
// configuring the SSE server. Clients always subscribe to the default and
// sessions topics; a session-specific topic is added when the client asks for
// live updates of one conversation.
func NewMain(
	client *api.Client,
	auth *services.AuthSession,
	locale *services.LocaleStore,
	projects services.ProjectStore,
	store services.BoltDB,
	logger *slog.Logger,
) (*Main, error) {
	funcs := template.FuncMap{
		"add":   func(a, b int) int { return a + b },
		"sub":   func(a, b int) int { return a - b },
		"deref": func(v *float64) float64 { return *v },
	}

	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(
		coachwebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, err
	}

	return &Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic, sessionsSSETopic}

				sessionID := s.Req.URL.Query().Get("session_id")
				if sessionID != "" {
					topics = append(topics, sessionTopic(sessionID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates: tmpl,
		api:       client,
		auth:      auth,
		locale:    locale,
		projects:  projects,
		store:     store,
		logger:    logger.With(slog.String("module", "handlers")),
		streams:   map[string]streamHandle{},
	}, nil
}

func sessionTopic(sessionID string) string {
	return fmt.Sprintf("session-%s", sessionID)
}

// HandleSSE serves the browser-facing event stream.
func (m *Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown cancels every in-flight roundtable bridge, broadcasts a close
// message, and waits up to 5 seconds for SSE connections to terminate.
func (m *Main) Shutdown(ctx context.Context) error {
	m.streamsMu.Lock()
	for id, handle := range m.streams {
		handle.cancel()
		delete(m.streams, id)
	}
	m.streamsMu.Unlock()

	e := &sse.Message{Type: sse.Type("closeChat")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// basePageData carries what every page needs: the resolved language, the
// current user, and the active project. Templates call T for translations.
type basePageData struct {
	Title         string
	Lang          string
	User          *models.User
	ActiveProject string
	Alert         string

	locale *services.LocaleStore
}

// T translates a catalog key for the page's language.
func (d basePageData) T(key string) string {
	return d.locale.T(d.Lang, key)
}

// N formats a number with the page language's digit separators.
func (d basePageData) N(v float64) string {
	return d.locale.FormatNumber(d.Lang, v)
}

// Pct formats a ratio as a percentage for the page language.
func (d basePageData) Pct(v float64) string {
	return d.locale.FormatPercent(d.Lang, v)
}

func (m *Main) baseData(r *http.Request, titleKey string) basePageData {
	lang := m.locale.Resolve(r)
	return basePageData{
		Title:         m.locale.T(lang, titleKey),
		Lang:          lang,
		User:          m.auth.CurrentUser(),
		ActiveProject: m.projects.ActiveProject(),
		locale:        m.locale,
	}
}

// messageView is a message prepared for template rendering, with assistant
// content already converted from markdown.
type messageView struct {
	ID          string
	Role        string
	CoachID     string
	CoachName   string
	CoachAvatar string
	Content     template.HTML
	Type        string
	Round       int
	Timestamp   time.Time

	StreamingState string
}

func (m *Main) messageView(msg models.Message) (messageView, error) {
	content := template.HTML(template.HTMLEscapeString(msg.Content))
	if msg.Role == models.RoleAssistant {
		rendered, err := models.RenderMarkdown(msg.Content)
		if err != nil {
			return messageView{}, fmt.Errorf("failed to render message content: %w", err)
		}
		content = rendered
	}

	state := msg.StreamingState
	if state == "" {
		state = models.StreamingStateEnded
	}

	return messageView{
		ID:             msg.ID,
		Role:           string(msg.Role),
		CoachID:        msg.CoachID,
		CoachName:      msg.CoachName,
		CoachAvatar:    msg.CoachAvatar,
		Content:        content,
		Type:           string(msg.Type),
		Round:          msg.Round,
		Timestamp:      msg.Timestamp,
		StreamingState: state,
	}, nil
}

// alertMessage extracts a user-facing message from an error, preferring the
// backend's decoded message over transport noise.
func alertMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
