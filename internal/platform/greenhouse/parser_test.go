package greenhouse

import (
	"testing"
	"time"
)

func TestParseDateRFC3339(t *testing.T) {
	p := Parser{}
	got := p.ParseDate("2024-03-15T00:00:00Z")
	if got == nil {
		t.Fatal("ParseDate returned nil for valid RFC3339 input")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}
}

func TestParseDateShortForm(t *testing.T) {
	p := Parser{}
	got := p.ParseDate("2024-03-15")
	if got == nil {
		t.Fatal("ParseDate returned nil for valid short-form date")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}
}

func TestParseDateUnrecognized(t *testing.T) {
	p := Parser{}
	cases := []string{"", "Posted 3 Days Ago", "not a date", "March 15th 2024"}
	for _, raw := range cases {
		if got := p.ParseDate(raw); got != nil {
			t.Errorf("ParseDate(%q) = %v, want nil", raw, got)
		}
	}
}

func TestParseLocation(t *testing.T) {
	p := Parser{}
	cases := map[string]string{
		"Location: Remote":      "Remote",
		"location : New York":   "New York",
		"LOCATION:Austin, TX":   "Austin, TX",
		"Remote, USA":           "Remote, USA",
		"":                      "",
	}
	for raw, want := range cases {
		if got := p.ParseLocation(raw); got != want {
			t.Errorf("ParseLocation(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseJobIDTrimsWhitespace(t *testing.T) {
	p := Parser{}
	if got := p.ParseJobID("  12345  "); got != "12345" {
		t.Errorf("ParseJobID() = %q, want %q", got, "12345")
	}
}
