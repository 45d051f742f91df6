package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
	"github.com/tradepsych/coach-web-ui/internal/roundtable"
)

type chatPageData struct {
	basePageData
	Sessions       []models.Session
	Coaches        []models.Coach
	CurrentSession *models.Session
	Messages       []messageView
}

type liveData struct {
	Finalized []messageView
	Partials  []roundtable.Partial
	Failed    bool
	Error     string
}

// HandleChat renders the chat page: the session list, the coach picker for
// new sessions, and the transcript of the selected session. When the backend
// transcript fetch fails the locally cached copy is rendered instead.
func (m *Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	data := chatPageData{basePageData: m.baseData(r, "nav.chat")}

	sessions, err := m.api.Sessions(r.Context(), data.ActiveProject)
	if err != nil {
		m.logger.Warn("Failed to load sessions", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
	} else {
		data.Sessions = sessions
	}

	coaches, err := m.api.Coaches(r.Context())
	if err != nil {
		m.logger.Warn("Failed to load coaches", slog.String(errLoggerKey, err.Error()))
	} else {
		data.Coaches = coaches
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID != "" {
		session, err := m.api.Session(r.Context(), sessionID)
		if err != nil {
			m.logger.Warn("Failed to load session",
				slog.String("sessionID", sessionID),
				slog.String(errLoggerKey, err.Error()))
			data.Alert = alertMessage(err)
		} else {
			data.CurrentSession = &session
		}

		messages, err := m.api.SessionMessages(r.Context(), sessionID)
		if err != nil {
			m.logger.Warn("Falling back to cached transcript",
				slog.String("sessionID", sessionID),
				slog.String(errLoggerKey, err.Error()))
			messages, _ = m.store.CachedMessages(sessionID)
		} else {
			if err := m.store.ReplaceCachedMessages(sessionID, messages); err != nil {
				m.logger.Error("Failed to refresh transcript cache",
					slog.String("sessionID", sessionID),
					slog.String(errLoggerKey, err.Error()))
			}
		}
		for _, msg := range messages {
			view, err := m.messageView(msg)
			if err != nil {
				m.logger.Error("Failed to render message", slog.String(errLoggerKey, err.Error()))
				continue
			}
			data.Messages = append(data.Messages, view)
		}
	}

	m.render(w, "chat.html", data)
}

// HandleCreateSession opens a new session from the coach picker form and
// redirects to it.
func (m *Main) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	coachIDs := r.Form["coach_id"]
	if len(coachIDs) == 0 {
		http.Error(w, "At least one coach is required", http.StatusBadRequest)
		return
	}

	mode := models.DiscussionMode(r.FormValue("mode"))
	if mode == "" {
		mode = models.ModeFree
	}
	moderatorID := r.FormValue("moderator_id")
	if mode != models.ModeModerated {
		moderatorID = ""
	}

	session, err := m.api.CreateSession(r.Context(), api.CreateSessionRequest{
		CoachIDs:    coachIDs,
		Mode:        mode,
		ModeratorID: moderatorID,
		ProjectID:   m.projects.ActiveProject(),
		Title:       strings.TrimSpace(r.FormValue("title")),
	})
	if err != nil {
		m.logger.Error("Failed to create session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, alertMessage(err), http.StatusBadGateway)
		return
	}

	m.publishSessionList()
	http.Redirect(w, r, "/chat?session_id="+session.ID, http.StatusSeeOther)
}

// HandleChatMessage submits a user message to a session and starts the
// roundtable bridge that streams the coaches' replies back to the browser.
func (m *Main) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content := strings.TrimSpace(r.FormValue("message"))
	if content == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		http.Error(w, "Session is required", http.StatusBadRequest)
		return
	}

	userMsg, err := m.api.PostSessionMessage(r.Context(), sessionID, content)
	if err != nil {
		m.logger.Error("Failed to post message",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, alertMessage(err), http.StatusBadGateway)
		return
	}
	if userMsg.ID == "" {
		userMsg = models.Message{
			ID:        uuid.New().String(),
			Role:      models.RoleUser,
			Content:   content,
			Timestamp: time.Now(),
		}
	}
	if err := m.store.CacheMessage(sessionID, userMsg); err != nil {
		m.logger.Error("Failed to cache user message", slog.String(errLoggerKey, err.Error()))
	}

	go m.streamRoundtable(sessionID)

	view, err := m.messageView(userMsg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.render(w, "user_message", view)
}

// HandleDeleteSession removes a session and its cached transcript.
func (m *Main) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		http.Error(w, "Session is required", http.StatusBadRequest)
		return
	}

	m.cancelStream(sessionID)

	if err := m.api.DeleteSession(r.Context(), sessionID); err != nil {
		m.logger.Error("Failed to delete session",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, alertMessage(err), http.StatusBadGateway)
		return
	}
	if err := m.store.DropCachedMessages(sessionID); err != nil {
		m.logger.Error("Failed to drop cached transcript", slog.String(errLoggerKey, err.Error()))
	}

	m.publishSessionList()
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// streamRoundtable bridges one backend roundtable stream into browser SSE
// updates. It runs in its own goroutine; starting a new bridge for the same
// session cancels the previous one. Every event batch re-renders the live
// region (finalized messages plus in-flight partials) for the session topic.
func (m *Main) streamRoundtable(sessionID string) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := m.registerStream(sessionID, cancel)
	defer m.unregisterStream(sessionID, gen, cancel)

	// Ensure SSE listeners are told the stream is over on every exit path
	defer func() {
		e := &sse.Message{Type: sse.Type("closeMessage")}
		e.AppendData("bye")
		_ = m.sseSrv.Publish(e, sessionTopic(sessionID))
	}()

	body, err := m.api.OpenRoundtable(ctx, sessionID)
	if err != nil {
		m.logger.Error("Failed to open roundtable stream",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
		m.publishStreamError(sessionID, alertMessage(err))
		return
	}
	defer body.Close()

	coord := roundtable.NewCoordinator(sessionID)

	for ev, err := range roundtable.Events(body) {
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			// Transport failure mid-stream: keep the partial content.
			m.logger.Error("Roundtable stream failed",
				slog.String("sessionID", sessionID),
				slog.String(errLoggerKey, err.Error()))
			m.finalizeAborted(sessionID, coord)
			m.publishStreamError(sessionID, "The discussion stream was interrupted.")
			return
		}

		finalized := coord.Apply(ev)
		for _, msg := range finalized {
			if err := m.store.CacheMessage(sessionID, msg); err != nil {
				m.logger.Error("Failed to cache message", slog.String(errLoggerKey, err.Error()))
			}
		}

		m.publishLive(sessionID, coord)

		if coord.Done() {
			break
		}
	}

	if ctx.Err() != nil {
		// Cancelled by navigation, a replacement stream, or shutdown. Keep
		// whatever partial text arrived; no further publishes happen after
		// the accumulators are flushed.
		m.finalizeAborted(sessionID, coord)
		return
	}

	if coord.Phase() == roundtable.PhaseFailed {
		m.publishStreamError(sessionID, coord.Err())
	}
	if v := coord.Violations(); v > 0 {
		m.logger.Warn("Roundtable stream had protocol violations",
			slog.String("sessionID", sessionID),
			slog.Int("count", v))
	}
}

func (m *Main) finalizeAborted(sessionID string, coord *roundtable.Coordinator) {
	for _, msg := range coord.Abort() {
		if err := m.store.CacheMessage(sessionID, msg); err != nil {
			m.logger.Error("Failed to cache aborted message", slog.String(errLoggerKey, err.Error()))
		}
	}
}

func (m *Main) registerStream(sessionID string, cancel context.CancelFunc) uint64 {
	m.streamsMu.Lock()
	if prev, ok := m.streams[sessionID]; ok {
		prev.cancel()
	}
	m.streamGen++
	gen := m.streamGen
	m.streams[sessionID] = streamHandle{gen: gen, cancel: cancel}
	m.streamsMu.Unlock()
	return gen
}

func (m *Main) unregisterStream(sessionID string, gen uint64, cancel context.CancelFunc) {
	m.streamsMu.Lock()
	// Only remove our own registration; a replacement stream may have taken
	// the slot already, and its entry must stay cancellable.
	if cur, ok := m.streams[sessionID]; ok && cur.gen == gen {
		delete(m.streams, sessionID)
	}
	m.streamsMu.Unlock()
	cancel()
}

func (m *Main) cancelStream(sessionID string) {
	m.streamsMu.Lock()
	if handle, ok := m.streams[sessionID]; ok {
		handle.cancel()
		delete(m.streams, sessionID)
	}
	m.streamsMu.Unlock()
}

func (m *Main) publishLive(sessionID string, coord *roundtable.Coordinator) {
	var finalized []messageView
	for _, msg := range coord.Messages() {
		view, err := m.messageView(msg)
		if err != nil {
			m.logger.Error("Failed to render live message", slog.String(errLoggerKey, err.Error()))
			return
		}
		finalized = append(finalized, view)
	}

	var sb strings.Builder
	err := m.templates.ExecuteTemplate(&sb, "roundtable_live", liveData{
		Finalized: finalized,
		Partials:  coord.Partials(),
		Failed:    coord.Phase() == roundtable.PhaseFailed,
		Error:     coord.Err(),
	})
	if err != nil {
		m.logger.Error("Failed to render live region", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: messagesSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, sessionTopic(sessionID)); err != nil {
		m.logger.Error("Failed to publish live region",
			slog.String("sessionID", sessionID),
			slog.String(errLoggerKey, err.Error()))
	}
}

func (m *Main) publishStreamError(sessionID, message string) {
	msg := sse.Message{Type: errorSSEType}
	msg.AppendData(message)
	_ = m.sseSrv.Publish(&msg, sessionTopic(sessionID))
}

func (m *Main) publishSessionList() {
	sessions, err := m.api.Sessions(context.Background(), m.projects.ActiveProject())
	if err != nil {
		m.logger.Error("Failed to reload sessions", slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	for _, session := range sessions {
		if err := m.templates.ExecuteTemplate(&sb, "session_title", session); err != nil {
			m.logger.Error("Failed to render session title", slog.String(errLoggerKey, err.Error()))
			return
		}
	}

	msg := sse.Message{Type: sessionsSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, sessionsSSETopic); err != nil {
		m.logger.Error("Failed to publish session list", slog.String(errLoggerKey, err.Error()))
	}
}
