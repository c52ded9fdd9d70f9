// Package workday implements the platform.Scraper contract for Workday
// career sites: the one fully browser-driven platform in this registry.
package workday

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"jobfleet/internal/browser"
	"jobfleet/internal/domain"
	"jobfleet/internal/platform"
)

func init() {
	platform.Register("workday", func(cfg map[string]string, deps platform.Deps) (platform.Scraper, error) {
		return New(cfg, deps)
	})
}

// Scraper drives a Workday career site through a shared browser.Driver.
type Scraper struct {
	sel    Selectors
	parser Parser
	drv    *browser.Driver
	log    *slog.Logger
}

// New constructs a Workday scraper from merged platform configuration,
// eagerly opening the shared browser driver since this platform cannot
// operate without one.
func New(cfg map[string]string, deps platform.Deps) (*Scraper, error) {
	if deps.OpenBrowser == nil {
		return nil, fmt.Errorf("workday: browser driver required")
	}
	drv, err := deps.OpenBrowser()
	if err != nil {
		return nil, fmt.Errorf("workday: %w", err)
	}
	sel := defaultSelectors()
	sel.applyOverrides(cfg)
	return &Scraper{sel: sel, drv: drv, log: deps.Log}, nil
}

func (s *Scraper) Name() string { return "workday" }

// Paginate waits for the list container, then branches on hasPagination
// vs. infinite scroll. It never returns an error: a failure to open the
// board session or to find the list container is logged, and an empty
// slice is returned.
func (s *Scraper) Paginate(ctx context.Context, company domain.Company, targetURL string, maxPages int) ([]domain.JobSummary, error) {
	sess, err := s.drv.OpenSession(ctx, targetURL)
	if err != nil {
		s.log.Warn("workday: could not open board session", "url", targetURL, "err", err)
		return nil, nil
	}
	defer sess.Close()
	page := sess.Page

	if _, err := page.Timeout(30 * time.Second).Element(s.sel.JobList); err != nil {
		s.log.Warn("workday: job list container never appeared", "url", targetURL, "err", err)
		return nil, nil
	}

	var all []domain.JobSummary

	if s.drv.HasPagination(page, s.sel.PaginationBox) {
		pageCount := 0
		for {
			pageCount++
			if maxPages > 0 && pageCount > maxPages {
				break
			}

			summaries := s.extractSummaries(page, targetURL)
			all = append(all, summaries...)

			advanced, err := s.drv.ClickNext(page, s.sel.NextPageButton)
			if err != nil {
				s.log.Warn("workday: pagination click failed, stopping", "err", err)
				break
			}
			if !advanced {
				break
			}
			time.Sleep(2 * time.Second)
		}
	} else {
		if err := s.drv.ScrollToExhaust(page, s.sel.JobItem); err != nil {
			s.log.Warn("workday: scroll-to-exhaust failed", "err", err)
		}
		all = s.extractSummaries(page, targetURL)
	}

	return all, nil
}

// extractSummaries reads every list item on the current page: title link
// text + href (resolved against the board's scheme+host), location, and
// raw posted date, applying the platform parser and preserving list order.
// Per-item extraction errors are tolerated and simply skip that item.
func (s *Scraper) extractSummaries(page *rod.Page, targetURL string) []domain.JobSummary {
	base, _ := url.Parse(targetURL)

	items, err := page.Elements(s.sel.JobItem)
	if err != nil {
		s.log.Warn("workday: could not enumerate job items", "err", err)
		return nil
	}

	summaries := make([]domain.JobSummary, 0, len(items))
	for _, item := range items {
		titleEl, err := item.Element(s.sel.JobTitle)
		if err != nil {
			continue
		}
		title, err := titleEl.Text()
		if err != nil || strings.TrimSpace(title) == "" {
			continue
		}

		href, err := titleEl.Attribute("href")
		if err != nil || href == nil || strings.TrimSpace(*href) == "" {
			continue
		}
		detailURL := resolveURL(base, *href)
		if detailURL == "" {
			continue
		}

		locationRaw := textOrEmpty(item, s.sel.JobLocation)
		dateRaw := textOrEmpty(item, s.sel.JobPostedDate)

		summaries = append(summaries, domain.JobSummary{
			Title:         strings.TrimSpace(title),
			DetailURL:     detailURL,
			LocationRaw:   locationRaw,
			LocationText:  s.parser.ParseLocation(locationRaw),
			DatePostedRaw: dateRaw,
			DatePosted:    s.parser.ParseDate(dateRaw),
		})
	}

	return summaries
}

func textOrEmpty(item *rod.Element, selector string) string {
	el, err := item.Element(selector)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// FetchDetails navigates to a job's detail page in an isolated browsing
// context, waits for the description selector, and extracts description,
// job id, and title. Failures return placeholder values rather than an
// error, except for a closed-context failure, which is surfaced as
// browser.ErrAborted so the orchestrator does not retry it.
func (s *Scraper) FetchDetails(ctx context.Context, jobURL string) (platform.Details, error) {
	sess, err := s.drv.OpenIsolatedContext(ctx, jobURL)
	if err != nil {
		if browser.IsTargetClosed(err) {
			return platform.Details{}, fmt.Errorf("%w: %v", browser.ErrAborted, err)
		}
		return placeholderDetails(), nil
	}
	defer sess.Close()
	page := sess.Page

	if _, err := page.Timeout(10 * time.Second).Element(s.sel.JobDescription); err != nil {
		s.log.Warn("workday: description selector never appeared", "url", jobURL, "err", err)
		return placeholderDetails(), nil
	}

	details := platform.Details{Description: "N/A", JobID: "N/A", Title: "N/A"}

	if el, err := page.Element(s.sel.JobDescription); err == nil {
		if text, err := el.Text(); err == nil {
			details.Description = text
		}
	}
	details.JobID = s.fetchJobID(page)
	if el, err := page.Element("h1"); err == nil {
		if text, err := el.Text(); err == nil {
			details.Title = strings.TrimSpace(text)
		}
	}

	return details, nil
}

// fetchJobID tries the primary job-id selector first, falling back to a
// text-anchored sibling lookup ("Job Id:" label followed by its value in
// the next element) when the themed selector misses, mirroring the
// original scraper's "span:has-text('Job Id:') + span" fallback.
func (s *Scraper) fetchJobID(page *rod.Page) string {
	if el, err := page.Element(s.sel.JobIDDetail); err == nil {
		if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
			return s.parser.ParseJobID(text)
		}
	}

	label, err := page.Timeout(2 * time.Second).ElementR(s.sel.JobIDFallbackLabel, `(?i)job\s*id`)
	if err != nil {
		return "N/A"
	}
	sibling, err := label.Next()
	if err != nil {
		return "N/A"
	}
	text, err := sibling.Text()
	if err != nil || strings.TrimSpace(text) == "" {
		return "N/A"
	}
	return s.parser.ParseJobID(text)
}

func placeholderDetails() platform.Details {
	return platform.Details{Description: "N/A", JobID: "N/A", Title: "N/A"}
}
