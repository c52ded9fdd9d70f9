// Package platform defines the per-platform scraper contract and a
// build-time registry of concrete implementations.
package platform

import (
	"context"
	"log/slog"
	"time"

	"jobfleet/internal/browser"
	"jobfleet/internal/domain"
)

// Parser exposes the pure, dependency-free text transforms a platform's
// scraper uses while reading list and detail pages.
type Parser interface {
	ParseDate(raw string) *time.Time
	ParseLocation(raw string) string
	ParseJobID(raw string) string
}

// Details is the result of a per-job detail-page fetch. Fields fall back
// to placeholder values ("N/A") rather than being left empty on partial
// failure, per the platform scraper contract.
type Details struct {
	Description string
	JobID       string
	Title       string
}

// Scraper is the contract every platform package must implement. The
// orchestrator never reaches past this interface into platform internals:
// a browser-driven platform and an HTTP-driven one look identical to it.
type Scraper interface {
	// Paginate walks a board's list page(s), returning summaries in list
	// order. Must return an empty slice, never an error, on total failure.
	Paginate(ctx context.Context, company domain.Company, targetURL string, maxPages int) ([]domain.JobSummary, error)

	// FetchDetails navigates to a single job's detail page and extracts
	// its description, job id, and title.
	FetchDetails(ctx context.Context, jobURL string) (Details, error)

	// Name is the platform identifier as it appears in job_boards.platform.
	Name() string
}

// Deps carries the shared, process-wide collaborators a platform
// constructor may need. OpenBrowser is lazy so an HTTP-driven platform
// like greenhouse never pays for a Chromium launch it has no use for;
// a browser-driven platform calls it once, during construction.
type Deps struct {
	OpenBrowser func() (*browser.Driver, error)
	Log         *slog.Logger
}

// Factory constructs a Scraper for a platform given merged configuration
// and shared dependencies.
type Factory func(cfg map[string]string, deps Deps) (Scraper, error)

var registry = map[string]Factory{}

// Register adds a platform factory to the build-time registry. Intended to
// be called from each platform package's init(), mirroring the teacher's
// discovery step without needing runtime directory scanning.
func Register(name string, f Factory) {
	registry[name] = f
}

// ErrUnknownPlatform is returned by CreateScraper for a name not present
// in the registry, surfaced before any I/O happens.
type ErrUnknownPlatform struct {
	Name string
}

func (e ErrUnknownPlatform) Error() string {
	return "platform: unknown platform " + e.Name
}

// CreateScraper resolves a platform by name and constructs its scraper,
// merging platformDefaults with callerConfig (caller wins on key
// collision). Unknown platforms are rejected before any I/O is attempted.
func CreateScraper(name string, platformDefaults, callerConfig map[string]string, deps Deps) (Scraper, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, ErrUnknownPlatform{Name: name}
	}

	merged := make(map[string]string, len(platformDefaults)+len(callerConfig))
	for k, v := range platformDefaults {
		merged[k] = v
	}
	for k, v := range callerConfig {
		merged[k] = v
	}

	return factory(merged, deps)
}
