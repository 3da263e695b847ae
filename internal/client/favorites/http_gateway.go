package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway calls the marketplace favorites endpoints with a bearer
// token.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway creates a gateway against baseURL.
func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("favorites request %s %s failed with status %d: %s", method, path, resp.StatusCode, body)
	}
	return resp, nil
}

// AddFavorite adds the ad to the server-side set.
func (g *HTTPGateway) AddFavorite(ctx context.Context, adID string) error {
	resp, err := g.do(ctx, http.MethodPost, "/user/favorites/"+adID)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// RemoveFavorite removes the ad from the server-side set.
func (g *HTTPGateway) RemoveFavorite(ctx context.Context, adID string) error {
	resp, err := g.do(ctx, http.MethodDelete, "/user/favorites/"+adID)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ListFavorites fetches the authoritative server-side set. The server
// responds with a bare JSON array of ad ids.
func (g *HTTPGateway) ListFavorites(ctx context.Context) ([]string, error) {
	resp, err := g.do(ctx, http.MethodGet, "/user/favorites")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var favorites []string
	if err := json.NewDecoder(resp.Body).Decode(&favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites response: %w", err)
	}
	return favorites, nil
}
