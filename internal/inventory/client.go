// Package inventory provides the two drug-catalog backends the stock
// watcher can poll: an HTTP client for the REST backend (standalone watch
// mode) and an adapter over the storage layer (in-process mode).
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
)

// Client talks to the REST backend over HTTP. Used by the standalone
// watch command; in-process callers use StoreInventory instead.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an inventory API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListDrugs(ctx context.Context) ([]model.Drug, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drugs", nil)
	if err != nil {
		return nil, fmt.Errorf("create drugs request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch drugs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory api returned status %d", resp.StatusCode)
	}

	var drugs []model.Drug
	if err := json.NewDecoder(resp.Body).Decode(&drugs); err != nil {
		return nil, fmt.Errorf("decode drugs: %w", err)
	}
	return drugs, nil
}

func (c *Client) OrderStock(ctx context.Context, order model.OrderRequest) (*model.OrderResult, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order_stock", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order api returned status %d", resp.StatusCode)
	}

	var result model.OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode order result: %w", err)
	}
	return &result, nil
}
