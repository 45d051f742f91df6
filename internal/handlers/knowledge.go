package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

// ingestWait caps how long an upload request blocks on the backend's
// ingestion task before reporting that it is still running.
const ingestWait = 60 * time.Second

type knowledgePageData struct {
	basePageData
	Documents []models.KnowledgeDocument
	Query     string
	Hits      []models.SearchHit
	Ingested  string
	Pending   bool
}

// HandleKnowledge renders the knowledge base: the document list and, when a
// query is submitted, semantic search results.
func (m *Main) HandleKnowledge(w http.ResponseWriter, r *http.Request) {
	data := knowledgePageData{basePageData: m.baseData(r, "knowledge.title")}

	docs, err := m.api.KnowledgeDocuments(r.Context(), data.ActiveProject)
	if err != nil {
		m.logger.Warn("Failed to load documents", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
	} else {
		data.Documents = docs
	}

	data.Query = strings.TrimSpace(r.URL.Query().Get("q"))
	if data.Query != "" {
		topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))
		if topK < 1 {
			topK = 5
		}
		hits, err := m.api.SearchKnowledge(r.Context(), api.SearchRequest{
			Query:     data.Query,
			TopK:      topK,
			ProjectID: data.ActiveProject,
		})
		if err != nil {
			m.logger.Warn("Search failed", slog.String(errLoggerKey, err.Error()))
			data.Alert = alertMessage(err)
		} else {
			data.Hits = hits
		}
	}

	m.render(w, "knowledge.html", data)
}

// HandleKnowledgeIngest uploads a document, queues the ingestion task, and
// waits for it with a hard timeout. A timeout is reported to the user rather
// than blocking indefinitely; the backend keeps processing regardless.
func (m *Main) HandleKnowledgeIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A document file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data := knowledgePageData{basePageData: m.baseData(r, "knowledge.title")}

	taskID, err := m.api.IngestKnowledge(r.Context(), header.Filename, file, data.ActiveProject)
	if err != nil {
		m.logger.Error("Failed to queue ingestion", slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
		m.render(w, "knowledge.html", data)
		return
	}

	status, err := m.api.WaitForTask(r.Context(), taskID, ingestWait)
	switch {
	case errors.Is(err, api.ErrTaskTimeout):
		data.Pending = true
	case err != nil:
		m.logger.Error("Failed to wait for ingestion",
			slog.String("taskID", taskID),
			slog.String(errLoggerKey, err.Error()))
		data.Alert = alertMessage(err)
	case status.Status == models.TaskStatusFailed:
		data.Alert = status.Error
	default:
		data.Ingested = header.Filename
	}

	docs, err := m.api.KnowledgeDocuments(r.Context(), data.ActiveProject)
	if err != nil {
		m.logger.Warn("Failed to reload documents", slog.String(errLoggerKey, err.Error()))
	} else {
		data.Documents = docs
	}

	m.render(w, "knowledge.html", data)
}

// HandleKnowledgeDelete removes a document.
func (m *Main) HandleKnowledgeDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.FormValue("document_id")
	if id == "" {
		http.Error(w, "Document is required", http.StatusBadRequest)
		return
	}
	if err := m.api.DeleteKnowledgeDocument(r.Context(), id); err != nil {
		m.logger.Error("Failed to delete document",
			slog.String("id", id),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, alertMessage(err), http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/knowledge", http.StatusSeeOther)
}
