/*
internal/datadog/client.go
Package datadog owns the HTTP conversation with the Datadog logs API:
v2 events search and v2 intake submission.
*/

package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MaxPageLimit is the search page cap enforced by the backend; requested
// limits above it are clamped, never rejected.
const MaxPageLimit = 1000

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failure response is retained for
// diagnostics.
const maxErrorBody = 1000

// Entry is an open-schema log record. message, service, status and
// timestamp are the recognized keys; everything else passes through.
type Entry map[string]any

// BackendError reports a rejected or unreachable backend call.
type BackendError struct {
	Status int
	Body   string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("datadog returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("datadog request failed: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Config carries credentials and host selection for the client.
type Config struct {
	APIKey string
	AppKey string
	Site   string

	// Optional full base-URL overrides, used when pointing at a local
	// mock backend. When empty the hosts derive from Site.
	SearchBaseURL string
	IntakeBaseURL string

	Timeout time.Duration
}

// Client is safe for concurrent use; it holds no mutable per-call state.
type Client struct {
	apiKey     string
	appKey     string
	site       string
	searchURL  string
	intakeURL  string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient constructs a client for the configured Datadog site.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	site := cfg.Site
	if site == "" {
		site = "datadoghq.com"
	}
	searchBase := cfg.SearchBaseURL
	if searchBase == "" {
		searchBase = "https://api." + site
	}
	intakeBase := cfg.IntakeBaseURL
	if intakeBase == "" {
		intakeBase = "https://http-intake.logs." + site
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		appKey:     cfg.AppKey,
		site:       site,
		searchURL:  strings.TrimRight(searchBase, "/") + "/api/v2/logs/events/search",
		intakeURL:  strings.TrimRight(intakeBase, "/") + "/api/v2/logs",
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Site reports the backend site the client targets.
func (c *Client) Site() string {
	return c.site
}

// Search issues a v2 logs search and returns the backend's result
// envelope unmodified.
func (c *Client) Search(ctx context.Context, filter, from, to string, limit int) (json.RawMessage, error) {
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	payload := map[string]any{
		"filter": map[string]any{
			"query": filter,
			"from":  from,
			"to":    to,
		},
		"sort": "-timestamp",
		"page": map[string]any{"limit": limit},
	}

	c.logger.Info("datadog search request",
		slog.String("query", filter),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("limit", limit))

	body, err := c.postJSON(ctx, c.searchURL, payload, []int{http.StatusOK})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Submit sends one or more entries to the intake API in a single call.
// Entries missing a timestamp are stamped with the current UTC time.
// Fire and forget: no retry, no batching across calls.
func (c *Client) Submit(ctx context.Context, entries []Entry) error {
	for _, entry := range entries {
		if _, ok := entry["timestamp"]; !ok {
			entry["timestamp"] = time.Now().UTC().Format(time.RFC3339)
		}
	}

	c.logger.Info("datadog log submission",
		slog.Int("entries", len(entries)),
		slog.String("site", c.site))

	// 202 Accepted is the usual intake success; 200 counts too.
	_, err := c.postJSON(ctx, c.intakeURL, entries, []int{http.StatusOK, http.StatusAccepted})
	return err
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, okStatuses []int) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &BackendError{Err: fmt.Errorf("marshal payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", c.apiKey)
	if c.appKey != "" {
		req.Header.Set("DD-APPLICATION-KEY", c.appKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Status: resp.StatusCode, Err: err}
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return respBody, nil
		}
	}

	snippet := string(respBody)
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody]
	}
	c.logger.Error("datadog request rejected",
		slog.String("url", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.String("body", snippet))
	return nil, &BackendError{Status: resp.StatusCode, Body: snippet}
}
