// Package domain holds the core record types shared across the scraper
// pipeline and the store adapter.
package domain

import "time"

// BoardType distinguishes a job board owned by a single company from an
// aggregate board that lists postings for many companies.
type BoardType string

const (
	BoardTypeCompany   BoardType = "Company"
	BoardTypeAggregate BoardType = "Aggregate"
)

// Company is a globally-unique-by-name employer. Created lazily by the
// store on first reference; never deleted by the core.
type Company struct {
	ID        int64
	Name      string
	Sector    string
	AddedAt   time.Time
	UpdatedAt time.Time
}

// JobBoard is a crawlable source, owned and maintained by the external CSV
// loader. The core only ever reads it.
type JobBoard struct {
	ID        int64
	CompanyID *int64
	Type      BoardType
	Platform  string
	Link      string
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Location is the structured, LLM-enriched form of a raw location string.
type Location struct {
	City       string
	Country    string
	Region     string
	Confidence float64
}

// Unknown reports whether every field of the location is the sentinel
// "Unknown" value produced by a failed or low-confidence parse.
func (l Location) Unknown() bool {
	return l.City == "Unknown" && l.Country == "Unknown" && l.Region == "Unknown"
}

// Listing is the persisted, append-only record of a single job posting.
// Invariants: Link is globally unique; (Title, CompanyID, Link) is unique.
type Listing struct {
	ID          int64
	Title       string
	Location    string
	City        string
	Country     string
	Region      string
	Description string
	// DescriptionMarkdown is an additive enrichment over the required
	// plain-text Description, produced by internal/descriptionmd.
	DescriptionMarkdown string
	Link                string
	// DatePosted is nil when the posted date could not be parsed; the
	// store persists this as a NULL column rather than a sentinel value.
	DatePosted *time.Time
	CompanyID  int64
	JobBoardID int64
	AddedAt    time.Time
	UpdatedAt  time.Time
}

// JobSummary is the pipeline's in-memory working unit produced by a
// platform's list-page pass, before detail fetch and location enrichment.
type JobSummary struct {
	Title        string
	DetailURL    string
	LocationRaw  string
	LocationText string
	DatePostedRaw string
	DatePosted   *time.Time
}

// JobRecord extends a JobSummary with detail-page and enrichment data; it
// is the unit handed to the Store Adapter.
type JobRecord struct {
	JobSummary

	Description string
	// DescriptionMarkdown is an additive enrichment over Description,
	// produced by internal/descriptionmd.
	DescriptionMarkdown string
	JobID               string
	CompanyName         string
	BoardLink           string

	Location Location

	// Extras carries platform-specific overflow fields that don't map to
	// a first-class column, keyed by field name.
	Extras map[string]string
}
