// Package client talks to a running clawdash API server.
//
// It mirrors the gateway facade: list calls return the decoded collection
// and, when the server marked the response degraded, a *gateway.QueryError
// carrying the server-side failure kind. Transport failures and non-2xx
// responses are returned as errors, with *StatusError for the latter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/musher-dev/clawdash/internal/buildinfo"
	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

const (
	// DefaultBaseURL is the default API endpoint.
	DefaultBaseURL = "http://localhost:3001"
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

var errDegraded = errors.New("server reported degraded result")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Operation, e.StatusCode)
	}

	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Client is the clawdash API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: observability.InstrumentTransport(nil),
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var out model.HealthResponse
	if err := c.get(ctx, "health", "/health", &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListSessions fetches the session list.
func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	var out model.SessionsResponse
	if err := c.get(ctx, "list sessions", "/api/sessions/list", &out); err != nil {
		return []model.Session{}, err
	}

	if out.Sessions == nil {
		out.Sessions = []model.Session{}
	}

	return out.Sessions, degradedError("sessions.list", out.Degraded)
}

// ListJobs fetches the scheduled job list.
func (c *Client) ListJobs(ctx context.Context) ([]model.ScheduledJob, error) {
	var out model.JobsResponse
	if err := c.get(ctx, "list jobs", "/api/cron/list", &out); err != nil {
		return []model.ScheduledJob{}, err
	}

	if out.Jobs == nil {
		out.Jobs = []model.ScheduledJob{}
	}

	return out.Jobs, degradedError("jobs.list", out.Degraded)
}

// AgentsOverview fetches agents and bindings.
func (c *Client) AgentsOverview(ctx context.Context) (model.AgentsOverview, error) {
	var out model.AgentsResponse
	if err := c.get(ctx, "agents overview", "/api/agents/overview", &out); err != nil {
		return model.EmptyOverview(), err
	}

	overview := out.AgentsOverview
	if overview.Agents == nil || overview.Bindings == nil {
		overview.DeriveBindings()
	}

	return overview, degradedError("agents.overview", out.Degraded)
}

// Status fetches gateway liveness and server memory stats.
func (c *Client) Status(ctx context.Context) (*model.SystemStatus, error) {
	var out model.SystemStatus
	if err := c.get(ctx, "system status", "/api/system/status", &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// UpdateJob applies a merge patch to a job.
func (c *Client) UpdateJob(ctx context.Context, id string, patch model.JobPatch) (bool, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return false, fmt.Errorf("failed to marshal patch: %w", err)
	}

	var out model.MutationResponse
	if err := c.post(ctx, "update job", "/api/cron/update/"+neturl.PathEscape(id), body, &out); err != nil {
		return false, err
	}

	return out.Success, nil
}

// RunJob triggers an immediate run of a job.
func (c *Client) RunJob(ctx context.Context, id string) (bool, error) {
	var out model.MutationResponse
	if err := c.post(ctx, "run job", "/api/cron/run/"+neturl.PathEscape(id), nil, &out); err != nil {
		return false, err
	}

	return out.Success, nil
}

func (c *Client) get(ctx context.Context, operation, path string, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return c.do(req, operation, dst)
}

func (c *Client) post(ctx context.Context, operation, path string, body []byte, dst any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	return c.do(req, operation, dst)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "clawdash/"+buildinfo.Version)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request, operation string, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return unexpectedStatus(operation, resp.StatusCode, resp.Body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", operation, err)
	}

	return nil
}

// unexpectedStatus builds a StatusError, preferring the JSON error message.
func unexpectedStatus(operation string, statusCode int, body io.Reader) error {
	statusErr := &StatusError{Operation: operation, StatusCode: statusCode}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		statusErr.Message = fmt.Sprintf("failed to read body: %v", err)
		return statusErr
	}

	var payload model.ErrorResponse
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		statusErr.Message = payload.Error
	} else {
		statusErr.Message = strings.TrimSpace(string(data))
	}

	return statusErr
}

func degradedError(op, kind string) error {
	if kind == "" {
		return nil
	}

	return &gateway.QueryError{Op: op, Kind: gateway.ErrorKind(kind), Err: errDegraded}
}
