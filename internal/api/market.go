package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

// Quote fetches a market-data snapshot for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	var quote models.Quote
	err := c.do(ctx, http.MethodGet, "/market/quote", q, nil, &quote)
	return quote, err
}

// SearchSymbols looks up tradable symbols matching the query, used by the
// journal entry form's symbol picker.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]models.SymbolInfo, error) {
	q := url.Values{}
	q.Set("q", query)
	var symbols []models.SymbolInfo
	err := c.do(ctx, http.MethodGet, "/market/symbols/search", q, nil, &symbols)
	return symbols, err
}
