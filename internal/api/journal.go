package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// JournalQuery filters and paginates the journal listing. Zero values fall
// back to the backend's defaults (page 1, 20 per page, all projects).
type JournalQuery struct {
	Page      int
	PerPage   int
	ProjectID string
	Symbol    string
}

func (q JournalQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.ProjectID != "" {
		v.Set("project_id", q.ProjectID)
	}
	if q.Symbol != "" {
		v.Set("symbol", q.Symbol)
	}
	return v
}

// Journals fetches one page of trade records.
func (c *Client) Journals(ctx context.Context, query JournalQuery) (models.JournalPage, error) {
	var page models.JournalPage
	err := c.do(ctx, http.MethodGet, "/journals", query.values(), nil, &page)
	return page, err
}

// Journal fetches one trade record by id.
func (c *Client) Journal(ctx context.Context, id string) (models.JournalEntry, error) {
	var entry models.JournalEntry
	err := c.do(ctx, http.MethodGet, "/journals/"+id, nil, nil, &entry)
	return entry, err
}

// CreateJournal stores a new trade record.
func (c *Client) CreateJournal(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	var created models.JournalEntry
	err := c.do(ctx, http.MethodPost, "/journals", nil, entry, &created)
	return created, err
}

// UpdateJournal overwrites an existing trade record.
func (c *Client) UpdateJournal(ctx context.Context, entry models.JournalEntry) (models.JournalEntry, error) {
	var updated models.JournalEntry
	err := c.do(ctx, http.MethodPut, "/journals/"+entry.ID, nil, entry, &updated)
	return updated, err
}

// DeleteJournal removes a trade record.
func (c *Client) DeleteJournal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/journals/"+id, nil, nil, nil)
}

// JournalStatistics fetches the backend's aggregate scoring, optionally
// scoped to a project.
func (c *Client) JournalStatistics(ctx context.Context, projectID string) (models.JournalStatistics, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	var stats models.JournalStatistics
	err := c.do(ctx, http.MethodGet, "/journals/statistics", q, nil, &stats)
	return stats, err
}

func csvForm(filename string, file io.Reader, projectID string) func(*multipart.Writer) error {
	return func(mw *multipart.Writer) error {
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
	}
}

// PreviewJournalImport asks the backend to dry-run parse an uploaded CSV.
func (c *Client) PreviewJournalImport(ctx context.Context, filename string, file io.Reader, projectID string) (models.ImportPreview, error) {
	var preview models.ImportPreview
	err := c.doMultipart(ctx, "/journals/import/preview", csvForm(filename, file, projectID), &preview)
	return preview, err
}

// ImportJournal commits an uploaded CSV into the journal.
func (c *Client) ImportJournal(ctx context.Context, filename string, file io.Reader, projectID string) (models.ImportResult, error) {
	var result models.ImportResult
	err := c.doMultipart(ctx, "/journals/import", csvForm(filename, file, projectID), &result)
	return result, err
}
