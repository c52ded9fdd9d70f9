// Package pipeline drives one board end-to-end: pagination, batch
// location enrichment, bounded-concurrency detail fetch with retries, and
// filtering, handing the surviving records to the store adapter.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"jobfleet/internal/browser"
	"jobfleet/internal/descriptionmd"
	"jobfleet/internal/domain"
	"jobfleet/internal/locateintel"
	"jobfleet/internal/platform"
)

// ErrAborted marks a detail-fetch failure that must not be retried: the
// page or its browsing context was torn down mid-fetch. It is the same
// sentinel platform scrapers wrap via browser.ErrAborted.
var ErrAborted = browser.ErrAborted

const (
	defaultDetailConcurrency = 10
	defaultDetailRetries     = 3
	defaultDetailBackoff     = 2 * time.Second
)

// Options configures one Orchestrator run.
type Options struct {
	MaxPages          int
	DetailConcurrency int
	DetailRetries     int
	DetailBackoff     time.Duration
	ShowProgress      bool
}

func (o Options) withDefaults() Options {
	if o.DetailConcurrency <= 0 {
		o.DetailConcurrency = defaultDetailConcurrency
	}
	if o.DetailRetries <= 0 {
		o.DetailRetries = defaultDetailRetries
	}
	if o.DetailBackoff <= 0 {
		o.DetailBackoff = defaultDetailBackoff
	}
	return o
}

// Orchestrator drives a single board crawl from pagination to a filtered,
// ready-to-persist record set. It never reaches past the platform.Scraper
// contract into a platform's own resource acquisition (browser session,
// HTTP client, ...): that is each platform's own concern.
type Orchestrator struct {
	log      *slog.Logger
	location *locateintel.Parser
}

// New constructs an Orchestrator bound to one location parser, shared
// across boards in a fleet run.
func New(log *slog.Logger, location *locateintel.Parser) *Orchestrator {
	return &Orchestrator{log: log, location: location}
}

// Run executes one board's crawl: paginate, batch-enrich locations,
// bounded-parallel detail fetch, filter, dedupe. Per-record and
// per-page failures are logged and dropped rather than returned: a slow
// or partially broken board should never abort a whole fleet run.
func (o *Orchestrator) Run(ctx context.Context, company domain.Company, boardURL string, scraper platform.Scraper, opts Options) ([]domain.JobRecord, error) {
	opts = opts.withDefaults()

	summaries, err := scraper.Paginate(ctx, company, boardURL, opts.MaxPages)
	if err != nil {
		o.log.Warn("pagination failed, continuing with partial results", "board", boardURL, "err", err)
	}
	if opts.ShowProgress {
		o.log.Info("pages scraped", "jobs_collected", len(summaries))
	}

	locationByRaw := o.enrichLocations(ctx, summaries)

	records := o.fetchDetails(ctx, summaries, company, boardURL, scraper, locationByRaw, opts)

	return filterAndDedupe(records), nil
}

// enrichLocations collects the set of unique non-empty raw location
// strings across all summaries and submits them to the
// IntelligentLocationParser in one batch call, installing the result back
// onto each summary.
func (o *Orchestrator) enrichLocations(ctx context.Context, summaries []domain.JobSummary) map[string]domain.Location {
	seen := map[string]struct{}{}
	var unique []string
	for _, s := range summaries {
		raw := strings.TrimSpace(s.LocationRaw)
		if raw == "" {
			continue
		}
		if _, ok := seen[raw]; !ok {
			seen[raw] = struct{}{}
			unique = append(unique, raw)
		}
	}

	parsed := o.location.ParseBatch(ctx, unique)

	byRaw := make(map[string]domain.Location, len(unique))
	for i, raw := range unique {
		byRaw[raw] = parsed[i]
	}
	return byRaw
}

func (o *Orchestrator) fetchDetails(ctx context.Context, summaries []domain.JobSummary, company domain.Company, boardURL string, scraper platform.Scraper, locationByRaw map[string]domain.Location, opts Options) []domain.JobRecord {
	sem := semaphore.NewWeighted(int64(opts.DetailConcurrency))
	results := make([]*domain.JobRecord, len(summaries))

	var wg sync.WaitGroup
	var processed int
	var mu sync.Mutex

	for i, summary := range summaries {
		if strings.TrimSpace(summary.DetailURL) == "" {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(i int, summary domain.JobSummary) {
			defer wg.Done()
			defer sem.Release(1)

			record, err := o.fetchOneWithRetry(ctx, summary, company, boardURL, scraper, opts)
			if err != nil {
				o.log.Warn("detail fetch exhausted retries, dropping job", "url", summary.DetailURL, "err", err)
			} else {
				record.Location = locationByRaw[strings.TrimSpace(summary.LocationRaw)]
				results[i] = record
			}

			if opts.ShowProgress {
				mu.Lock()
				processed++
				n := processed
				mu.Unlock()
				o.log.Info("jobs processed", "processed", n, "total", len(summaries))
			}
		}(i, summary)
	}

	wg.Wait()

	out := make([]domain.JobRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// fetchOneWithRetry fetches one job's detail page, retrying transient
// failures up to opts.DetailRetries times with doubling backoff. An
// ErrAborted failure (the platform's resource was torn down mid-fetch)
// aborts immediately without retry.
func (o *Orchestrator) fetchOneWithRetry(ctx context.Context, summary domain.JobSummary, company domain.Company, boardURL string, scraper platform.Scraper, opts Options) (*domain.JobRecord, error) {
	backoff := opts.DetailBackoff
	var lastErr error

	for attempt := 0; attempt < opts.DetailRetries; attempt++ {
		details, err := scraper.FetchDetails(ctx, summary.DetailURL)
		if err == nil {
			record := &domain.JobRecord{
				JobSummary:  summary,
				Description: details.Description,
				JobID:       details.JobID,
				CompanyName: company.Name,
				BoardLink:   boardURL,
			}
			if details.Title != "" {
				record.Title = details.Title
			}
			record.DescriptionMarkdown = descriptionmd.Convert(hostname(summary.DetailURL), details.Description)
			return record, nil
		}

		lastErr = err
		if errors.Is(err, ErrAborted) {
			return nil, err
		}

		if attempt < opts.DetailRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

// hostname extracts the scheme+host of a detail URL for use as the
// Markdown converter's base, so relative links in a job description
// resolve to absolute URLs once persisted.
func hostname(detailURL string) string {
	u, err := url.Parse(detailURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// filterAndDedupe drops records whose raw posted-date text indicates
// "posted 30+ days ago" and dedupes by detail URL, first occurrence wins,
// preserving first-seen order.
func filterAndDedupe(records []domain.JobRecord) []domain.JobRecord {
	seen := map[string]struct{}{}
	out := make([]domain.JobRecord, 0, len(records))

	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DatePostedRaw), "posted 30+ days ago") {
			continue
		}
		if _, ok := seen[r.DetailURL]; ok {
			continue
		}
		seen[r.DetailURL] = struct{}{}
		out = append(out, r)
	}
	return out
}
