package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

type settingsPageData struct {
	basePageData
	LLMConfig models.LLMConfig
	Providers []models.LLMProvider
	Languages []string
	Saved     bool
}

// HandleSettings renders the settings page and applies changes to the LLM
// configuration, the locale, and the active project, dispatched on the
// section form field.
func (m *Main) HandleSettings(w http.ResponseWriter, r *http.Request) {
	data := settingsPageData{basePageData: m.baseData(r, "settings.title")}
	data.Languages = m.locale.Supported()

	if r.Method == http.MethodPost {
		switch r.FormValue("section") {
		case "llm":
			m.saveLLMConfig(w, r, &data)
		case "locale":
			m.saveLocale(w, r, &data)
		case "project":
			m.saveProject(r, &data)
		default:
			http.Error(w, "Unknown settings section", http.StatusBadRequest)
			return
		}
		// The base data was built before the write; refresh what changed.
		data.ActiveProject = m.projects.ActiveProject()
	} else if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg, err := m.api.LLMConfig(r.Context())
	if err != nil {
		m.logger.Warn("Failed to load LLM config", slog.String(errLoggerKey, err.Error()))
		if data.Alert == "" {
			data.Alert = alertMessage(err)
		}
	} else {
		data.LLMConfig = cfg
	}

	providers, err := m.api.LLMProviders(r.Context())
	if err != nil {
		m.logger.Warn("Failed to load providers", slog.String(errLoggerKey, err.Error()))
	} else {
		data.Providers = providers
	}

	m.render(w, "settings.html", data)
}

func (m *Main) saveLLMConfig(_ http.ResponseWriter, r *http.Request, data *settingsPageData) {
	temperature, err := strconv.ParseFloat(r.FormValue("temperature"), 64)
	if err != nil || temperature < 0 || temperature > 2 {
		data.Alert = "Temperature must be a number between 0 and 2"
		return
	}
	maxTokens, err := strconv.Atoi(r.FormValue("max_tokens"))
	if err != nil || maxTokens < 1 {
		data.Alert = "Max tokens must be a positive number"
		return
	}

	cfg := models.LLMConfig{
		Provider:    strings.TrimSpace(r.FormValue("provider")),
		Model:       strings.TrimSpace(r.FormValue("model")),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if cfg.Provider == "" || cfg.Model == "" {
		data.Alert = "Provider and model are required"
		return
	}

	if _, err := m.api.UpdateLLMConfig(r.Context(), cfg); err != nil {
		m.logger.Error("Failed to update LLM config", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
		return
	}
	data.Saved = true
}

func (m *Main) saveLocale(w http.ResponseWriter, r *http.Request, data *settingsPageData) {
	lang := r.FormValue("language")
	if err := m.locale.SetLocale(lang); err != nil {
		data.Alert = "Unsupported language"
		return
	}
	m.setLocaleCookie(w, lang)
	// The request still carries the old cookie, so render with the new
	// language directly instead of re-resolving.
	data.Lang = lang
	data.Title = m.locale.T(lang, "settings.title")
	data.Saved = true
}

func (m *Main) saveProject(r *http.Request, data *settingsPageData) {
	id := strings.TrimSpace(r.FormValue("project_id"))
	if err := m.projects.SetActiveProject(id); err != nil {
		m.logger.Error("Failed to persist active project", slog.String(errLoggerKey, err.Error()))
		data.Alert = "Failed to save project selection"
		return
	}
	data.Saved = true
}
