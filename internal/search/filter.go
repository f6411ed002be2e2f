/*
internal/search/filter.go
Backend filter string construction.
*/

package search

import "strings"

// ServiceFilter renders the service-oriented filter: a service:<name>
// clause, space-joined with the extra clause when present. The extra
// clause is passed through verbatim; callers own backend query syntax.
func ServiceFilter(service, extra string) string {
	filter := "service:" + service
	if strings.TrimSpace(extra) != "" {
		filter += " " + extra
	}
	return filter
}

// RawFilter returns the caller-supplied query unmodified, falling back
// to the configured sentinel when the caller supplied nothing.
func RawFilter(query, sentinel string) string {
	if query == "" {
		return sentinel
	}
	return query
}
