package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

type homePageData struct {
	basePageData
	Statistics    models.JournalStatistics
	RecentEntries []models.JournalEntry
	Sessions      []models.Session
}

// HandleHome renders the dashboard: journal statistics, the most recent
// entries, and the session list. Each backend call degrades independently so
// one failure doesn't blank the whole page.
func (m *Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := homePageData{basePageData: m.baseData(r, "nav.dashboard")}
	projectID := data.ActiveProject

	stats, err := m.api.JournalStatistics(r.Context(), projectID)
	if err != nil {
		m.logger.Warn("Failed to load statistics", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
	} else {
		data.Statistics = stats
	}

	page, err := m.api.Journals(r.Context(), api.JournalQuery{Page: 1, PerPage: 5, ProjectID: projectID})
	if err != nil {
		m.logger.Warn("Failed to load recent entries", slog.String(errLoggerKey, err.Error()))
	} else {
		data.RecentEntries = page.Items
	}

	sessions, err := m.api.Sessions(r.Context(), projectID)
	if err != nil {
		m.logger.Warn("Failed to load sessions", slog.String(errLoggerKey, err.Error()))
	} else {
		data.Sessions = sessions
	}

	m.render(w, "home.html", data)
}
