package greenhouse

import (
	"regexp"
	"strings"
	"time"
)

var locationLabelPfx = regexp.MustCompile(`(?i)^\s*location\s*:?\s*`)

// Parser is the Greenhouse platform's pure text parser. Greenhouse board
// pages rarely expose a relative "posted N days ago" string the way
// Workday does, so ParseDate only handles ISO-ish absolute dates and
// leaves unrecognized input as unknown rather than guessing.
type Parser struct{}

// ParseDate accepts an RFC3339 or YYYY-MM-DD date string; anything else
// yields nil rather than a fabricated "now".
func (Parser) ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		u := t.UTC()
		return &u
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

// ParseLocation strips a leading "Location:" label and trims.
func (Parser) ParseLocation(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(locationLabelPfx.ReplaceAllString(raw, ""))
}

// ParseJobID trims surrounding whitespace; Greenhouse job ids are already
// bare numeric strings extracted from the listing URL.
func (Parser) ParseJobID(raw string) string {
	return strings.TrimSpace(raw)
}
