package spincheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/mealspin/internal/adapters/http/api"
)

// HTTPClient wraps http.Client and stamps the caller's user id on every request.
type HTTPClient struct {
	client *http.Client
	userID string
}

func newHTTPClient(timeout time.Duration, userID string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		userID: userID,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(api.HeaderUserID, c.userID)
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.HeaderUserID, c.userID)
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// pickedItem is the subset of an item the tool tallies.
type pickedItem struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
}

// pickResponse decodes both a bare item and a suggestion envelope.
type pickResponse struct {
	pickedItem
	Meal       *pickedItem `json:"meal"`
	Restaurant *pickedItem `json:"restaurant"`
}

func (p pickResponse) item() pickedItem {
	switch {
	case p.Meal != nil:
		return *p.Meal
	case p.Restaurant != nil:
		return *p.Restaurant
	default:
		return p.pickedItem
	}
}

type selectionRequest struct {
	ItemType  string `json:"item_type"`
	ItemID    string `json:"item_id"`
	RequestID string `json:"request_id"`
}
