package datadog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubbedClient(cfg Config, rt roundTripFunc) *Client {
	c := NewClient(cfg, testLogger())
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestSearchRequestShape(t *testing.T) {
	var captured struct {
		url     string
		headers http.Header
		payload map[string]any
	}

	client := newStubbedClient(Config{APIKey: "k", AppKey: "ak", Site: "datadoghq.eu"},
		func(req *http.Request) (*http.Response, error) {
			captured.url = req.URL.String()
			captured.headers = req.Header
			body, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(body, &captured.payload); err != nil {
				t.Fatalf("request body is not JSON: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"data":[]}`), nil
		})

	_, err := client.Search(context.Background(), "service:my-app", "2024-01-01T00:00:00Z", "2024-01-01T01:00:00Z", 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if captured.url != "https://api.datadoghq.eu/api/v2/logs/events/search" {
		t.Fatalf("unexpected url: %s", captured.url)
	}
	if got := captured.headers.Get("DD-API-KEY"); got != "k" {
		t.Fatalf("DD-API-KEY = %q", got)
	}
	if got := captured.headers.Get("DD-APPLICATION-KEY"); got != "ak" {
		t.Fatalf("DD-APPLICATION-KEY = %q", got)
	}

	filter := captured.payload["filter"].(map[string]any)
	if filter["query"] != "service:my-app" {
		t.Fatalf("filter.query = %v", filter["query"])
	}
	if filter["from"] != "2024-01-01T00:00:00Z" || filter["to"] != "2024-01-01T01:00:00Z" {
		t.Fatalf("filter bounds = %v / %v", filter["from"], filter["to"])
	}
	if captured.payload["sort"] != "-timestamp" {
		t.Fatalf("sort = %v", captured.payload["sort"])
	}
	page := captured.payload["page"].(map[string]any)
	if page["limit"] != float64(50) {
		t.Fatalf("page.limit = %v", page["limit"])
	}
}

func TestSearchClampsLimit(t *testing.T) {
	client := newStubbedClient(Config{APIKey: "k"},
		func(req *http.Request) (*http.Response, error) {
			var payload map[string]any
			body, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("request body is not JSON: %v", err)
			}
			page := payload["page"].(map[string]any)
			if page["limit"] != float64(MaxPageLimit) {
				t.Fatalf("page.limit = %v, want %d", page["limit"], MaxPageLimit)
			}
			return jsonResponse(http.StatusOK, `{}`), nil
		})

	if _, err := client.Search(context.Background(), "q", "a", "b", 5000); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestSearchPassesThroughEnvelope(t *testing.T) {
	const envelope = `{"data":[{"id":"1"}],"meta":{"page":{}}}`
	client := newStubbedClient(Config{APIKey: "k"},
		func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, envelope), nil
		})

	raw, err := client.Search(context.Background(), "q", "a", "b", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(raw) != envelope {
		t.Fatalf("envelope reshaped: %s", raw)
	}
}

func TestSearchBackendRejection(t *testing.T) {
	client := newStubbedClient(Config{APIKey: "k"},
		func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusForbidden, `{"errors":["forbidden"]}`), nil
		})

	_, err := client.Search(context.Background(), "q", "a", "b", 5)
	var bErr *BackendError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	if bErr.Status != http.StatusForbidden {
		t.Fatalf("status = %d", bErr.Status)
	}
	if !strings.Contains(bErr.Body, "forbidden") {
		t.Fatalf("body not retained: %q", bErr.Body)
	}
}

func TestSearchTransportFailure(t *testing.T) {
	transportErr := errors.New("connection refused")
	client := newStubbedClient(Config{APIKey: "k"},
		func(*http.Request) (*http.Response, error) {
			return nil, transportErr
		})

	_, err := client.Search(context.Background(), "q", "a", "b", 5)
	var bErr *BackendError
	if !errors.As(err, &bErr) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	if bErr.Status != 0 {
		t.Fatalf("transport failure should carry no status, got %d", bErr.Status)
	}
	if !errors.Is(err, transportErr) {
		t.Fatalf("cause not wrapped: %v", err)
	}
}

func TestSubmitStampsMissingTimestamps(t *testing.T) {
	var sent []map[string]any
	client := newStubbedClient(Config{APIKey: "k"},
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(body, &sent); err != nil {
				t.Fatalf("payload is not a JSON array: %v", err)
			}
			return jsonResponse(http.StatusAccepted, `{}`), nil
		})

	entries := []Entry{
		{"message": "one"},
		{"message": "two", "timestamp": "2024-01-01T00:00:00Z"},
	}
	before := time.Now().UTC()
	if err := client.Submit(context.Background(), entries); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(sent) != 2 {
		t.Fatalf("sent %d entries, want 2", len(sent))
	}
	stamped, ok := sent[0]["timestamp"].(string)
	if !ok {
		t.Fatalf("missing timestamp not stamped: %v", sent[0])
	}
	ts, err := time.Parse(time.RFC3339, stamped)
	if err != nil {
		t.Fatalf("stamped timestamp not RFC3339: %v", err)
	}
	if ts.Before(before.Add(-time.Minute)) {
		t.Fatalf("stamped timestamp too old: %v", ts)
	}
	if sent[1]["timestamp"] != "2024-01-01T00:00:00Z" {
		t.Fatalf("existing timestamp overwritten: %v", sent[1]["timestamp"])
	}
}

func TestSubmitIntakeURLAndStatuses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusAccepted} {
		client := newStubbedClient(Config{APIKey: "k", Site: "datadoghq.com"},
			func(req *http.Request) (*http.Response, error) {
				if req.URL.String() != "https://http-intake.logs.datadoghq.com/api/v2/logs" {
					t.Fatalf("unexpected intake url: %s", req.URL)
				}
				return jsonResponse(status, `{}`), nil
			})
		if err := client.Submit(context.Background(), []Entry{{"message": "m"}}); err != nil {
			t.Fatalf("status %d should be success, got %v", status, err)
		}
	}

	client := newStubbedClient(Config{APIKey: "k"},
		func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadRequest, `{"errors":["bad"]}`), nil
		})
	err := client.Submit(context.Background(), []Entry{{"message": "m"}})
	var bErr *BackendError
	if !errors.As(err, &bErr) || bErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 BackendError, got %v", err)
	}
}

func TestBaseURLOverrides(t *testing.T) {
	client := NewClient(Config{
		APIKey:        "k",
		SearchBaseURL: "http://127.0.0.1:9999/",
		IntakeBaseURL: "http://127.0.0.1:9998",
	}, testLogger())

	if client.searchURL != "http://127.0.0.1:9999/api/v2/logs/events/search" {
		t.Fatalf("search url = %s", client.searchURL)
	}
	if client.intakeURL != "http://127.0.0.1:9998/api/v2/logs" {
		t.Fatalf("intake url = %s", client.intakeURL)
	}
}
