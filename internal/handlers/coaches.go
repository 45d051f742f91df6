package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

type coachesPageData struct {
	basePageData
	Coaches []models.Coach
	Created string
}

// HandleCoaches renders the coach marketplace and creates custom personas.
func (m *Main) HandleCoaches(w http.ResponseWriter, r *http.Request) {
	data := coachesPageData{basePageData: m.baseData(r, "nav.coaches")}

	if r.Method == http.MethodPost {
		name := strings.TrimSpace(r.FormValue("name"))
		systemPrompt := strings.TrimSpace(r.FormValue("system_prompt"))

		if name == "" || systemPrompt == "" {
			data.Alert = "Name and system prompt are required"
		} else {
			coach, err := m.api.CreateCustomCoach(r.Context(), api.CreateCoachRequest{
				Name:         name,
				Style:        strings.TrimSpace(r.FormValue("style")),
				Description:  strings.TrimSpace(r.FormValue("description")),
				SystemPrompt: systemPrompt,
			})
			if err != nil {
				m.logger.Error("Failed to create custom coach", slog.String(errLoggerKey, err.Error()))
				data.Alert = alertMessage(err)
			} else {
				data.Created = coach.Name
			}
		}
	} else if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	coaches, err := m.api.Coaches(r.Context())
	if err != nil {
		m.logger.Warn("Failed to load coaches", slog.String(errLoggerKey, err.Error()))
		if data.Alert == "" {
			data.Alert = alertMessage(err)
		}
	} else {
		data.Coaches = coaches
	}

	m.render(w, "coaches.html", data)
}
