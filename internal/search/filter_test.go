package search

import "testing"

func TestServiceFilter(t *testing.T) {
	cases := []struct {
		name    string
		service string
		extra   string
		want    string
	}{
		{"service only", "my-app", "", "service:my-app"},
		{"with extra clause", "my-app", "status:error", "service:my-app status:error"},
		{"extra passed through verbatim", "my-app", "@http.status_code:[500 TO 599]", "service:my-app @http.status_code:[500 TO 599]"},
		{"blank extra ignored", "my-app", "   ", "service:my-app"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ServiceFilter(tc.service, tc.extra); got != tc.want {
				t.Fatalf("ServiceFilter(%q, %q) = %q, want %q", tc.service, tc.extra, got, tc.want)
			}
		})
	}
}

func TestRawFilter(t *testing.T) {
	if got := RawFilter("", "datadog-agent"); got != "datadog-agent" {
		t.Fatalf("empty query: got %q", got)
	}
	if got := RawFilter("host:web-1", "datadog-agent"); got != "host:web-1" {
		t.Fatalf("explicit query: got %q", got)
	}
}
