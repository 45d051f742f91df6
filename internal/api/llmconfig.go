package api

import (
	"context"
	"net/http"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// LLMConfig fetches the backend's active model configuration.
func (c *Client) LLMConfig(ctx context.Context) (models.LLMConfig, error) {
	var cfg models.LLMConfig
	err := c.do(ctx, http.MethodGet, "/llm/config", nil, nil, &cfg)
	return cfg, err
}

// UpdateLLMConfig replaces the backend's active model configuration.
func (c *Client) UpdateLLMConfig(ctx context.Context, cfg models.LLMConfig) (models.LLMConfig, error) {
	var updated models.LLMConfig
	err := c.do(ctx, http.MethodPut, "/llm/config", nil, cfg, &updated)
	return updated, err
}

// LLMProviders lists the selectable providers and their models.
func (c *Client) LLMProviders(ctx context.Context) ([]models.LLMProvider, error) {
	var providers []models.LLMProvider
	err := c.do(ctx, http.MethodGet, "/llm/providers", nil, nil, &providers)
	return providers, err
}
