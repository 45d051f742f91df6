package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// SearchRequest is a semantic query over the knowledge base.
type SearchRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

type searchResponse struct {
	Hits []models.SearchHit `json:"hits"`
}

type ingestResponse struct {
	TaskID string `json:"task_id"`
}

// KnowledgeDocuments lists ingested documents, optionally scoped to a project.
func (c *Client) KnowledgeDocuments(ctx context.Context, projectID string) ([]models.KnowledgeDocument, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	var docs []models.KnowledgeDocument
	err := c.do(ctx, http.MethodGet, "/knowledge/documents", q, nil, &docs)
	return docs, err
}

// DeleteKnowledgeDocument removes a document and its chunks.
func (c *Client) DeleteKnowledgeDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/knowledge/documents/"+id, nil, nil, nil)
}

// SearchKnowledge runs a semantic search and returns scored chunks.
func (c *Client) SearchKnowledge(ctx context.Context, req SearchRequest) ([]models.SearchHit, error) {
	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/knowledge/search", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

// IngestKnowledge uploads a document for chunking and embedding. Ingestion is
// asynchronous; the returned task id is polled via WaitForTask.
func (c *Client) IngestKnowledge(ctx context.Context, filename string, file io.Reader, projectID string) (string, error) {
	var resp ingestResponse
	err := c.doMultipart(ctx, "/tasks/knowledge/ingest", func(mw *multipart.Writer) error {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("failed to copy file: %w", err)
		}
		if projectID != "" {
			if err := mw.WriteField("project_id", projectID); err != nil {
				return fmt.Errorf("failed to write project field: %w", err)
			}
		}
		return nil
	}, &resp)
	return resp.TaskID, err
}
