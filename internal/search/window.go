/*
internal/search/window.go
Time-window resolution: absolute timestamp pairs, relative range tokens,
and the fixed default window used by the free-form search shape.
*/

package search

import (
	"fmt"
	"time"
)

// TimeRange is a concrete [From, To) instant pair, always UTC.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// StartISO renders the range start as RFC3339 UTC with a Z suffix.
func (r TimeRange) StartISO() string {
	return r.From.UTC().Format(time.RFC3339)
}

// EndISO renders the range end as RFC3339 UTC with a Z suffix.
func (r TimeRange) EndISO() string {
	return r.To.UTC().Format(time.RFC3339)
}

// Relative range tokens accepted by the timerange search shape. Unknown
// tokens are a validation error, never silently defaulted.
var relativeDurations = map[string]time.Duration{
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"24h": 24 * time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// supportedTokens keeps the error message ordering stable.
var supportedTokens = []string{"15m", "30m", "1h", "4h", "24h", "1d", "7d"}

// SupportedTokens lists the accepted relative range tokens.
func SupportedTokens() []string {
	out := make([]string, len(supportedTokens))
	copy(out, supportedTokens)
	return out
}

// RelativeDuration returns the fixed duration for a token, or false when
// the token is not part of the closed enumeration.
func RelativeDuration(token string) (time.Duration, bool) {
	d, ok := relativeDurations[token]
	return d, ok
}

const (
	// Default window for the free-form shape: one hour ago, five
	// minutes wide. This is deliberately not "the last hour".
	defaultWindowAge  = time.Hour
	defaultWindowSpan = 5 * time.Minute
)

// layouts accepted for absolute timestamps. RFC3339 covers both the Z
// designator and explicit offsets; the second form accepts offset-less
// timestamps as UTC.
var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ResolveAbsolute parses an explicit start/end pair into a TimeRange.
// Start must precede end.
func ResolveAbsolute(start, end string) (TimeRange, error) {
	from, err := parseTimestamp(start)
	if err != nil {
		return TimeRange{}, NewValidationError(KindInvalidTimestamp,
			"Invalid timestamp format. Use ISO format (e.g., '2024-01-01T00:00:00Z')", err)
	}
	to, err := parseTimestamp(end)
	if err != nil {
		return TimeRange{}, NewValidationError(KindInvalidTimestamp,
			"Invalid timestamp format. Use ISO format (e.g., '2024-01-01T00:00:00Z')", err)
	}
	if !from.Before(to) {
		return TimeRange{}, NewValidationError(KindInvalidTimeRange,
			"start_time must be before end_time", nil)
	}
	return TimeRange{From: from, To: to}, nil
}

// ResolveRelative maps a relative token to [now-duration, now).
func ResolveRelative(token string) (TimeRange, error) {
	d, ok := relativeDurations[token]
	if !ok {
		return TimeRange{}, NewValidationError(KindInvalidTimeRange,
			fmt.Sprintf("Invalid timerange. Supported values: %v", supportedTokens), nil)
	}
	now := time.Now().UTC()
	return TimeRange{From: now.Add(-d), To: now}, nil
}

// DefaultWindow returns the fixed fallback window used when the
// free-form search shape supplies no time bounds.
func DefaultWindow() TimeRange {
	from := time.Now().UTC().Add(-defaultWindowAge)
	return TimeRange{From: from, To: from.Add(defaultWindowSpan)}
}
