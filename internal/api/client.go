package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Error is a failed backend call. Message is extracted from the JSON error
// body when one is present, falling back to the HTTP status text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// TokenSource supplies the current bearer token, or an empty string when the
// caller is unauthenticated.
type TokenSource func() string

// Client wraps the backend REST API under a fixed /v1 prefix. Every method is
// a single best-effort round trip: no retries, no caching. Failures are
// surfaced as *Error (HTTP-level) or wrapped transport errors.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *slog.Logger
}

// NewClient creates a backend client rooted at baseURL (without the /v1
// suffix). The token source may be nil for anonymous-only use.
func NewClient(baseURL string, timeout time.Duration, token TokenSource, logger *slog.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/v1",
		http:    &http.Client{Timeout: timeout},
		token:   token,
		logger:  logger.With(slog.String("module", "api")),
	}
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do performs one JSON round trip. A nil in skips the request body, a nil out
// discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, c.url(path, query), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doMultipart sends a multipart form built by the fill callback, used for CSV
// and document uploads.
func (c *Client) doMultipart(ctx context.Context, path string, fill func(*multipart.Writer) error, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := fill(mw); err != nil {
		return fmt.Errorf("failed to build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.url(path, nil), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// stream opens a long-lived SSE response. The caller owns the returned body.
// The http.Client timeout would kill the stream mid-conversation, so streams
// bypass it and rely on ctx for cancellation.
func (c *Client) stream(ctx context.Context, method, path string, in any) (io.ReadCloser, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, c.url(path, nil), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "text/event-stream")

	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

// decodeError extracts a human-readable message from a non-2xx response.
// Precedence: error.message, then a detail string, then the first msg of a
// detail array, then the HTTP status text.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}

	if payload.Error != nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		return apiErr
	}

	if len(payload.Detail) > 0 {
		var detailStr string
		if err := json.Unmarshal(payload.Detail, &detailStr); err == nil && detailStr != "" {
			apiErr.Message = detailStr
			return apiErr
		}
		var detailArr []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &detailArr); err == nil && len(detailArr) > 0 && detailArr[0].Msg != "" {
			apiErr.Message = detailArr[0].Msg
			return apiErr
		}
	}

	return apiErr
}
