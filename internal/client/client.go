// Package client talks to the phim-stream HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dom/phim-stream/internal/domain"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int               `json:"-"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+" "+reason)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Message, strings.Join(parts, "; "), e.StatusCode)
}

type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

type updateResponse struct {
	Message  string `json:"message"`
	NewToken string `json:"newToken"`
}

type movieList struct {
	Items []domain.Movie `json:"items"`
}

type WatchResponse struct {
	Movie   domain.MovieInfo `json:"movie"`
	Server  string           `json:"server"`
	Episode domain.Episode   `json:"episode"`
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/register", "", body, nil)
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile returns the re-issued token.
func (c *APIClient) UpdateProfile(ctx context.Context, token, name, gender string) (string, error) {
	body := map[string]string{"name": name, "gender": gender}

	var resp updateResponse
	if err := c.do(ctx, http.MethodPut, "/user/update", token, body, &resp); err != nil {
		return "", err
	}
	return resp.NewToken, nil
}

func (c *APIClient) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPut, "/user/change-password", token, body, nil)
}

func (c *APIClient) LatestMovies(ctx context.Context, page, limit int) ([]domain.Movie, error) {
	return c.movies(ctx, fmt.Sprintf("/movies/latest?page=%d&limit=%d", page, limit))
}

func (c *APIClient) AnimeMovies(ctx context.Context, page, limit int) ([]domain.Movie, error) {
	return c.movies(ctx, fmt.Sprintf("/movies/anime?page=%d&limit=%d", page, limit))
}

// SeriesMovies lists series; an empty country or a zero year leaves that
// filter unset.
func (c *APIClient) SeriesMovies(ctx context.Context, page int, country string, year, limit int) ([]domain.Movie, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if country != "" {
		q.Set("country", country)
	}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	return c.movies(ctx, "/movies/series?"+q.Encode())
}

func (c *APIClient) NationMovies(ctx context.Context, nation string, limit int) ([]domain.Movie, error) {
	return c.movies(ctx, fmt.Sprintf("/movies/nation/%s?limit=%d", url.PathEscape(nation), limit))
}

func (c *APIClient) Watch(ctx context.Context, slug string, server, episode int) (*WatchResponse, error) {
	var resp WatchResponse
	path := fmt.Sprintf("/movies/%s/watch?ss=%d&ep=%d", url.PathEscape(slug), server, episode)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) movies(ctx context.Context, path string) ([]domain.Movie, error) {
	var resp movieList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// do sends body as JSON and decodes a 2xx response into out when out is
// not nil.
func (c *APIClient) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(bodyBytes, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(bodyBytes))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
