package workday

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	p := Parser{}
	now := time.Now().UTC()

	cases := []struct {
		name string
		raw  string
		want func(*time.Time) bool
	}{
		{"posted today", "Posted Today", func(got *time.Time) bool {
			return got != nil && got.Year() == now.Year() && got.YearDay() == now.YearDay()
		}},
		{"just posted", "Just posted", func(got *time.Time) bool {
			return got != nil && got.YearDay() == now.YearDay()
		}},
		{"posted yesterday", "Posted Yesterday", func(got *time.Time) bool {
			want := now.AddDate(0, 0, -1)
			return got != nil && got.YearDay() == want.YearDay()
		}},
		{"posted N days ago", "Posted 5 Days Ago", func(got *time.Time) bool {
			want := now.AddDate(0, 0, -5)
			return got != nil && got.YearDay() == want.YearDay()
		}},
		{"posted N+ days ago", "Posted 30+ Days Ago", func(got *time.Time) bool {
			want := now.AddDate(0, 0, -30)
			return got != nil && got.YearDay() == want.YearDay()
		}},
		{"empty", "", func(got *time.Time) bool { return got == nil }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := p.ParseDate(c.raw)
			if !c.want(got) {
				t.Errorf("ParseDate(%q) = %v, unexpected", c.raw, got)
			}
		})
	}
}

func TestParseDateIsDeterministic(t *testing.T) {
	p := Parser{}
	raw := "Posted 3 Days Ago"
	a := p.ParseDate(raw)
	b := p.ParseDate(raw)
	if a == nil || b == nil || !a.Equal(*b) {
		t.Fatalf("ParseDate(%q) not deterministic across calls: %v vs %v", raw, a, b)
	}
}

func TestParseLocation(t *testing.T) {
	p := Parser{}
	cases := map[string]string{
		"locations: Remote, USA": "Remote, USA",
		"Locations: Austin, TX":  "Austin, TX",
		"Austin, TX":             "Austin, TX",
		"":                       "",
	}
	for raw, want := range cases {
		if got := p.ParseLocation(raw); got != want {
			t.Errorf("ParseLocation(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseJobID(t *testing.T) {
	p := Parser{}
	cases := map[string]string{
		"Job ID: R-12345": "R-12345",
		"job id R-98765":  "R-98765",
		"REQ-4567":        "4567",
		"plain-id":        "plain-id",
	}
	for raw, want := range cases {
		if got := p.ParseJobID(raw); got != want {
			t.Errorf("ParseJobID(%q) = %q, want %q", raw, got, want)
		}
	}
}
