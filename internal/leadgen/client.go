package leadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the site's JSON API.
type Client struct {
	base   string
	client *http.Client
	token  string
}

// NewClient creates a client for the site at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Close releases idle connections.
func (c *Client) Close() { c.client.CloseIdleConnections() }

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// Ready checks /readyz.
func (c *Client) Ready(ctx context.Context) error {
	code, err := c.do(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to site: %w", err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("site not ready: status %d", code)
	}
	return nil
}

// Submit posts one contact submission.
func (c *Client) Submit(ctx context.Context, s Submission) Outcome {
	var ack ackResponse
	code, err := c.do(ctx, http.MethodPost, "/api/contact", s, &ack)
	if err != nil {
		return Failed
	}
	switch code {
	case http.StatusAccepted:
		return Accepted
	case http.StatusOK:
		return Duplicate
	case http.StatusTooManyRequests:
		return Throttled
	default:
		return Failed
	}
}

// Login signs in and keeps the bearer token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp loginResponse
	code, err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if code != http.StatusOK || resp.Token == "" {
		return fmt.Errorf("login failed: status %d", code)
	}
	c.token = resp.Token
	return nil
}

// StoredLeads refreshes the dashboard list and returns its total.
func (c *Client) StoredLeads(ctx context.Context) (int, error) {
	var resp struct {
		Stats       leadStats `json:"stats"`
		FetchFailed bool      `json:"fetch_failed"`
	}
	code, err := c.do(ctx, http.MethodGet, "/api/leads?refresh=1", nil, &resp)
	if err != nil {
		return 0, err
	}
	if code != http.StatusOK {
		return 0, fmt.Errorf("list leads: status %d", code)
	}
	if resp.FetchFailed {
		return 0, fmt.Errorf("list leads: dashboard fetch failed")
	}
	return resp.Stats.Total, nil
}
