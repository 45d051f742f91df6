package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

type journalPageData struct {
	basePageData
	Entries    []models.JournalEntry
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Symbol     string
	Statistics models.JournalStatistics
	Preview    *models.ImportPreview
	Imported   *models.ImportResult

	Quote         *models.Quote
	SymbolQuery   string
	SymbolMatches []models.SymbolInfo
}

type journalDetailData struct {
	basePageData
	Entry models.JournalEntry
}

// HandleJournal renders the paginated journal listing with the statistics
// panel.
func (m *Main) HandleJournal(w http.ResponseWriter, r *http.Request) {
	data := journalPageData{basePageData: m.baseData(r, "journal.title")}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 20
	}
	data.Symbol = strings.TrimSpace(r.URL.Query().Get("symbol"))

	listing, err := m.api.Journals(r.Context(), api.JournalQuery{
		Page:      page,
		PerPage:   perPage,
		ProjectID: data.ActiveProject,
		Symbol:    data.Symbol,
	})
	if err != nil {
		m.logger.Warn("Failed to load journal", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
	} else {
		data.Entries = listing.Items
		data.Page = listing.Page
		data.PerPage = listing.PerPage
		data.Total = listing.Total
		data.TotalPages = listing.TotalPages
	}

	stats, err := m.api.JournalStatistics(r.Context(), data.ActiveProject)
	if err != nil {
		m.logger.Warn("Failed to load statistics", slog.String(errLoggerKey, err.Error()))
	} else {
		data.Statistics = stats
	}

	// Market data is decorative; both lookups degrade to an empty panel.
	if data.Symbol != "" {
		quote, err := m.api.Quote(r.Context(), data.Symbol)
		if err != nil {
			m.logger.Warn("Failed to load quote",
				slog.String("symbol", data.Symbol),
				slog.String(errLoggerKey, err.Error()))
		} else {
			data.Quote = &quote
		}
	}
	data.SymbolQuery = strings.TrimSpace(r.URL.Query().Get("symbol_q"))
	if data.SymbolQuery != "" {
		matches, err := m.api.SearchSymbols(r.Context(), data.SymbolQuery)
		if err != nil {
			m.logger.Warn("Failed to search symbols",
				slog.String("query", data.SymbolQuery),
				slog.String(errLoggerKey, err.Error()))
		} else {
			data.SymbolMatches = matches
		}
	}

	m.render(w, "journal.html", data)
}

// HandleJournalNew creates an entry from the form. The four required fields
// are validated client-side here before any network call; optional numeric
// fields are sent only when filled in.
func (m *Main) HandleJournalNew(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, errMsg := journalEntryFromForm(r)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}
	entry.ProjectID = m.projects.ActiveProject()

	if _, err := m.api.CreateJournal(r.Context(), entry); err != nil {
		m.logger.Error("Failed to create journal entry", slog.String(errLoggerKey, err.Error()))
		http.Error(w, alertMessage(err), http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/journal", http.StatusSeeOther)
}

// HandleJournalEntry serves the detail page and processes edits and deletes,
// dispatched on the _method form field.
func (m *Main) HandleJournalEntry(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/journal/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		data := journalDetailData{basePageData: m.baseData(r, "journal.title")}
		entry, err := m.api.Journal(r.Context(), id)
		if err != nil {
			m.logger.Warn("Failed to load journal entry",
				slog.String("id", id),
				slog.String(errLoggerKey, err.Error()))
			data.Alert = alertMessage(err)
		} else {
			data.Entry = entry
		}
		m.render(w, "journal_detail.html", data)

	case http.MethodPost:
		switch r.FormValue("_method") {
		case "delete":
			if err := m.api.DeleteJournal(r.Context(), id); err != nil {
				m.logger.Error("Failed to delete journal entry",
					slog.String("id", id),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, alertMessage(err), http.StatusBadGateway)
				return
			}
			http.Redirect(w, r, "/journal", http.StatusSeeOther)

		default:
			entry, errMsg := journalEntryFromForm(r)
			if errMsg != "" {
				http.Error(w, errMsg, http.StatusBadRequest)
				return
			}
			entry.ID = id
			entry.ProjectID = m.projects.ActiveProject()
			if _, err := m.api.UpdateJournal(r.Context(), entry); err != nil {
				m.logger.Error("Failed to update journal entry",
					slog.String("id", id),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, alertMessage(err), http.StatusBadGateway)
				return
			}
			http.Redirect(w, r, "/journal/"+id, http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleJournalImport uploads a CSV for preview or commit, dispatched on the
// action form field.
func (m *Main) HandleJournalImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A CSV file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data := journalPageData{basePageData: m.baseData(r, "journal.import")}
	projectID := data.ActiveProject

	switch r.FormValue("action") {
	case "commit":
		result, err := m.api.ImportJournal(r.Context(), header.Filename, file, projectID)
		if err != nil {
			m.logger.Error("Failed to import journal CSV", slog.String(errLoggerKey, err.Error()))
			data.Alert = alertMessage(err)
		} else {
			data.Imported = &result
		}
	default:
		preview, err := m.api.PreviewJournalImport(r.Context(), header.Filename, file, projectID)
		if err != nil {
			m.logger.Error("Failed to preview journal CSV", slog.String(errLoggerKey, err.Error()))
			data.Alert = alertMessage(err)
		} else {
			data.Preview = &preview
		}
	}

	m.render(w, "journal_import.html", data)
}

func journalEntryFromForm(r *http.Request) (models.JournalEntry, string) {
	entry := models.JournalEntry{
		Symbol:        strings.ToUpper(strings.TrimSpace(r.FormValue("symbol"))),
		Direction:     r.FormValue("direction"),
		Result:        r.FormValue("result"),
		FollowedRules: r.FormValue("followed_rules") == "on" || r.FormValue("followed_rules") == "true",
		Emotions:      strings.TrimSpace(r.FormValue("emotions")),
		Lessons:       strings.TrimSpace(r.FormValue("lessons")),
		Notes:         strings.TrimSpace(r.FormValue("notes")),
		Strategy:      strings.TrimSpace(r.FormValue("strategy")),
	}

	if entry.Symbol == "" {
		return entry, "Symbol is required"
	}
	if entry.Direction != "long" && entry.Direction != "short" {
		return entry, "Direction must be long or short"
	}
	if entry.Result != "win" && entry.Result != "loss" && entry.Result != "breakeven" {
		return entry, "Result must be win, loss or breakeven"
	}

	optional := map[string]**float64{
		"entry_price":   &entry.EntryPrice,
		"exit_price":    &entry.ExitPrice,
		"position_size": &entry.PositionSize,
		"stop_loss":     &entry.StopLoss,
		"take_profit":   &entry.TakeProfit,
		"fees":          &entry.Fees,
		"pnl_amount":    &entry.PnlAmount,
		"pnl_percent":   &entry.PnlPercent,
	}
	for field, dst := range optional {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return entry, "Invalid number for " + field
		}
		*dst = &v
	}

	return entry, ""
}
