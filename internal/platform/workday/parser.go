package workday

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	daysAgoRe     = regexp.MustCompile(`posted\s+(\d+)\s+days?\s+ago`)
	plusDaysAgoRe = regexp.MustCompile(`posted\s*(\d+)\+\s*days?\s*ago`)
	locationsPfx  = regexp.MustCompile(`(?i)^\s*locations\s*:?\s*`)
	jobIDPfx      = regexp.MustCompile(`(?i)^job\s*id\s*:?\s*`)
	reqPfx        = regexp.MustCompile(`(?i)^req-?`)
)

// Parser is the Workday platform's pure, dependency-free text parser.
type Parser struct{}

// ParseDate accepts Workday's relative and absolute date vocabulary and
// returns a UTC midnight time, or nil if the string is empty or
// unparseable. It never panics.
func (Parser) ParseDate(raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "posted on", "")

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if strings.Contains(s, "posted today") || strings.Contains(s, "just posted") {
		return &today
	}
	if strings.Contains(s, "posted yesterday") {
		t := today.AddDate(0, 0, -1)
		return &t
	}
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			t := today.AddDate(0, 0, -days)
			return &t
		}
	}
	if m := plusDaysAgoRe.FindStringSubmatch(s); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			t := today.AddDate(0, 0, -days)
			return &t
		}
	}

	cleaned := strings.ReplaceAll(s, "posted ", "")
	t, err := dateparse.ParseAny(cleaned)
	if err != nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// ParseLocation strips a leading "locations" prefix (case-insensitive,
// optional colon/whitespace) and trims.
func (Parser) ParseLocation(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := locationsPfx.ReplaceAllString(raw, "")
	return strings.TrimSpace(cleaned)
}

// ParseJobID strips a leading "job id:" prefix then a leading "req-"
// prefix, both case-insensitive.
func (Parser) ParseJobID(raw string) string {
	if raw == "" {
		return ""
	}
	id := strings.TrimSpace(raw)
	id = jobIDPfx.ReplaceAllString(id, "")
	id = reqPfx.ReplaceAllString(id, "")
	return strings.TrimSpace(id)
}
