/*
internal/server/handlers.go
Request handlers: validate, resolve the time window, build the filter,
call the backend, shape the response envelope.
*/

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsightlabs/opsight/internal/datadog"
	"github.com/opsightlabs/opsight/internal/metrics"
	"github.com/opsightlabs/opsight/internal/search"
)

type searchRequest struct {
	Service   string `json:"service"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Timerange string `json:"timerange"`
	Query     string `json:"query"`
	Limit     *int   `json:"limit"`
}

type submitRequest struct {
	Logs json.RawMessage `json:"logs"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": s.cfg.ServiceName,
	})
}

// handleSearch serves both search shapes: service-oriented when a
// service name is present, free-form with defaults when it is not.
func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := bindJSON(c, &req); err != nil {
		s.badRequest(c, "JSON payload required")
		return
	}

	var (
		window search.TimeRange
		filter string
		limit  int
		err    error
	)

	if req.Service != "" {
		// Strict shape: explicit service plus absolute bounds.
		if missing := missingParams(req); len(missing) > 0 {
			s.badRequest(c, "Missing required parameters: "+strings.Join(missing, ", "))
			return
		}
		window, err = search.ResolveAbsolute(req.StartTime, req.EndTime)
		if err != nil {
			s.writeError(c, "query", err)
			return
		}
		filter = search.ServiceFilter(req.Service, req.Query)
		limit = s.limitOrDefault(req.Limit, s.cfg.Search.DefaultLimit)
	} else {
		// Free-form shape: everything optional.
		filter = search.RawFilter(req.Query, s.cfg.Search.DefaultQuery)
		if req.StartTime != "" && req.EndTime != "" {
			window, err = search.ResolveAbsolute(req.StartTime, req.EndTime)
			if err != nil {
				s.writeError(c, "query", err)
				return
			}
		} else {
			window = search.DefaultWindow()
		}
		limit = s.limitOrDefault(req.Limit, s.cfg.Search.FreeformLimit)
	}

	s.dispatchSearch(c, filter, window, limit, "")
}

// handleSearchTimerange serves the relative-token search shape.
func (s *Server) handleSearchTimerange(c *gin.Context) {
	var req searchRequest
	if err := bindJSON(c, &req); err != nil {
		s.badRequest(c, "JSON payload required")
		return
	}

	var missing []string
	if req.Service == "" {
		missing = append(missing, "service")
	}
	if req.Timerange == "" {
		missing = append(missing, "timerange")
	}
	if len(missing) > 0 {
		s.badRequest(c, "Missing required parameters: "+strings.Join(missing, ", "))
		return
	}

	window, err := search.ResolveRelative(req.Timerange)
	if err != nil {
		s.writeError(c, "query", err)
		return
	}

	filter := search.ServiceFilter(req.Service, req.Query)
	limit := s.limitOrDefault(req.Limit, s.cfg.Search.DefaultLimit)

	s.dispatchSearch(c, filter, window, limit, req.Timerange)
}

// dispatchSearch performs the backend call and shapes the envelope.
func (s *Server) dispatchSearch(c *gin.Context, filter string, window search.TimeRange, limit int, timerange string) {
	start := time.Now()
	data, err := s.backend.Search(c.Request.Context(), filter, window.StartISO(), window.EndISO(), limit)
	metrics.ObserveBackendRequest("search", time.Since(start), err)
	if err != nil {
		s.writeError(c, "query", err)
		return
	}

	resp := gin.H{
		"success": true,
		"query":   filter,
		"time_range": gin.H{
			"start": window.StartISO(),
			"end":   window.EndISO(),
		},
		"data": data,
	}
	if timerange != "" {
		resp["timerange"] = timerange
	}

	s.logger.Info("logs search completed",
		slog.String("query", filter),
		slog.String("start", window.StartISO()),
		slog.String("end", window.EndISO()),
		slog.Int("limit", limit))

	c.JSON(http.StatusOK, resp)
}

// handleSubmit validates a submission batch, applies the namespace
// prefixing policy and forwards the whole batch in one call.
func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := bindJSON(c, &req); err != nil || len(req.Logs) == 0 {
		s.badRequest(c, "JSON payload with 'logs' array required")
		return
	}

	entries, err := decodeEntries(req.Logs)
	if err != nil {
		s.writeError(c, "submit", err)
		return
	}
	if len(entries) == 0 {
		s.badRequest(c, "JSON payload with 'logs' array required")
		return
	}

	// Validate the full batch before touching the backend; a single bad
	// entry rejects everything.
	for _, entry := range entries {
		if _, ok := entry["message"]; !ok {
			s.writeError(c, "submit", search.NewValidationError(search.KindMissingField,
				"Each log entry must contain a 'message' field", nil))
			return
		}
	}
	for _, entry := range entries {
		s.namespaceService(entry)
	}

	start := time.Now()
	err = s.backend.Submit(c.Request.Context(), entries)
	metrics.ObserveBackendRequest("submit", time.Since(start), err)
	if err != nil {
		s.writeError(c, "submit", err)
		return
	}

	s.logger.Info("logs submitted", slog.Int("count", len(entries)))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully submitted %d log(s)", len(entries)),
	})
}

// handleRecentAudit returns the newest operational audit entries.
func (s *Server) handleRecentAudit(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.store.Recent(limit)
	if err != nil {
		s.logger.Error("audit query failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"source":     e.Source,
			"level":      e.Level,
			"message":    e.Message,
			"timestamp":  e.Time.UTC().Format(time.RFC3339),
			"request_id": e.RequestID,
			"method":     e.Method,
			"path":       e.Path,
			"status":     e.StatusCode,
			"latency_ms": e.Latency.Milliseconds(),
			"client_ip":  e.ClientIP,
		})
	}
	c.JSON(http.StatusOK, gin.H{"logs": out})
}

// namespaceService rewrites an entry's service field so everything this
// façade submits is scoped under its own service name.
func (s *Server) namespaceService(entry datadog.Entry) {
	ns := s.cfg.ServiceName
	raw, ok := entry["service"]
	if !ok {
		entry["service"] = ns
		return
	}
	svc := fmt.Sprintf("%v", raw)
	if svc != ns {
		entry["service"] = ns + "." + svc
	}
}

func (s *Server) limitOrDefault(limit *int, fallback int) int {
	if limit == nil || *limit <= 0 {
		return fallback
	}
	return *limit
}

// decodeEntries accepts either a single object or a list of objects.
func decodeEntries(raw json.RawMessage) ([]datadog.Entry, error) {
	var list []datadog.Entry
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, entry := range list {
			if entry == nil {
				return nil, search.NewValidationError(search.KindInvalidEntry,
					"Each log entry must be a JSON object", nil)
			}
		}
		return list, nil
	}

	var single datadog.Entry
	if err := json.Unmarshal(raw, &single); err == nil && single != nil {
		return []datadog.Entry{single}, nil
	}

	return nil, search.NewValidationError(search.KindInvalidEntry,
		"Each log entry must be a JSON object", nil)
}

func missingParams(req searchRequest) []string {
	var missing []string
	if req.Service == "" {
		missing = append(missing, "service")
	}
	if req.StartTime == "" {
		missing = append(missing, "start_time")
	}
	if req.EndTime == "" {
		missing = append(missing, "end_time")
	}
	return missing
}

// bindJSON decodes the request body, treating an empty body as an empty
// payload so the zero-argument shape works.
func bindJSON(c *gin.Context, out any) error {
	err := c.ShouldBindJSON(out)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) badRequest(c *gin.Context, message string) {
	s.logger.Warn("bad request",
		slog.String("path", c.Request.URL.Path),
		slog.String("error", message))
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// failures become 400s, backend failures 500s, everything else a
// generic 500.
func (s *Server) writeError(c *gin.Context, operation string, err error) {
	var vErr *search.ValidationError
	if errors.As(err, &vErr) {
		s.badRequest(c, vErr.Message)
		return
	}

	var bErr *datadog.BackendError
	if errors.As(err, &bErr) {
		prefix := "Failed to query Datadog"
		if operation == "submit" {
			prefix = "Failed to submit logs to Datadog"
		}
		s.logger.Error("datadog call failed",
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", bErr.Status),
			slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("%s: %v", prefix, err),
		})
		return
	}

	s.logger.Error("internal server error",
		slog.String("path", c.Request.URL.Path),
		slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
