// Package client is a typed HTTP client for the game, auth and high score API.
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

	"brainbuster-service/internal/domain"
)

// APIError is a non-2xx response.
type APIError struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithToken sends token as a Bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the Bearer credential, e.g. after Login.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.SessionCreated, error) {
	var out domain.SessionCreated
	err := c.do(ctx, http.MethodPost, "/api/sp/sessions", req, &out)
	return out, err
}

func (c *Client) Start(ctx context.Context, sessionID string) (domain.StartResult, error) {
	var out domain.StartResult
	err := c.do(ctx, http.MethodPost, "/api/sp/sessions/"+url.PathEscape(sessionID)+"/start", nil, &out)
	return out, err
}

func (c *Client) Current(ctx context.Context, sessionID string) (domain.QuestionPayload, error) {
	var out domain.QuestionPayload
	err := c.do(ctx, http.MethodGet, "/api/sp/sessions/"+url.PathEscape(sessionID)+"/current", nil, &out)
	return out, err
}

func (c *Client) Answer(ctx context.Context, sessionID, choiceID string) (domain.AnswerResult, error) {
	var out domain.AnswerResult
	body := map[string]string{"choiceId": choiceID}
	err := c.do(ctx, http.MethodPost, "/api/sp/sessions/"+url.PathEscape(sessionID)+"/answer", body, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	var out domain.SessionSummary
	err := c.do(ctx, http.MethodGet, "/api/sp/sessions/"+url.PathEscape(sessionID), nil, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, username, password string) (domain.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register", username, password)
}

// Login stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (domain.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (domain.AuthResult, error) {
	var out domain.AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return out, err
	}
	c.token = out.Token
	return out, nil
}

func (c *Client) MyHighScore(ctx context.Context) (domain.HighScoreEntry, error) {
	var out domain.HighScoreEntry
	err := c.do(ctx, http.MethodGet, "/api/users/me/highscore", nil, &out)
	return out, err
}

func (c *Client) HighScores(ctx context.Context, limit int) ([]domain.HighScoreEntry, error) {
	var out []domain.HighScoreEntry
	err := c.do(ctx, http.MethodGet, "/api/users/highscores?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
