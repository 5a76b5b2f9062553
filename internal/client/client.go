// Package client talks to the ICP form service over HTTP.
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

	"github.com/google/uuid"

	"github.com/parisxmas/icpform/internal/models"
)

const (
	// ParseFailureMessage is reported when a 2xx body is not JSON.
	ParseFailureMessage = "Failed to parse response"

	maxBody = 10 << 20
)

// Envelope is the JSON body every endpoint answers with.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	ID      string          `json:"id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// APIError is a failed response: a non-2xx status, an unreadable body,
// or a body with success set to false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client sends requests to one service instance.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithToken sends an admin bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends a finished questionnaire to /api/submit-form.
func (c *Client) Submit(ctx context.Context, p *models.Profile) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/submit-form", p)
}

// List fetches one page of stored submissions.
func (c *Client) List(ctx context.Context, page, limit int) (*models.SubmissionPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	env, err := c.do(ctx, http.MethodGet, "/api/submissions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out models.SubmissionPage
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: ParseFailureMessage}
	}
	return &out, nil
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return "", err
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Token == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: ParseFailureMessage}
	}
	return out.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

// decodeEnvelope turns a response into an Envelope or an *APIError.
func decodeEnvelope(resp *http.Response) (*Envelope, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env Envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: ParseFailureMessage}
	}
	if !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if env.Message == "" {
		env.Message = "Success"
	}
	return &env, nil
}
