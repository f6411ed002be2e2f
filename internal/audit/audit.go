/*
internal/audit/audit.go
Package audit records the service's own operational activity (requests
served, heartbeat ticks) in a local store for later inspection.
*/

package audit

import "time"

// Entry is one operational audit record.
type Entry struct {
	Source    string
	Level     string
	Message   string
	Time      time.Time
	RequestID string

	// HTTP request fields, zero-valued for non-request entries.
	Method     string
	Path       string
	StatusCode int
	Latency    time.Duration
	ClientIP   string
}

// Store persists audit entries.
type Store interface {
	Save(entries []Entry) error
	Recent(limit int) ([]Entry, error)
	Close() error
}
