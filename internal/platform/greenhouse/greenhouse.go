// Package greenhouse implements the platform.Scraper contract over static
// Greenhouse job-board HTML: the second registered platform, proving the
// Scraper contract works for an HTTP-only implementation as well as a
// browser-driven one.
package greenhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	robotstxt "github.com/temoto/robotstxt"

	"jobfleet/internal/domain"
	"jobfleet/internal/platform"
)

const userAgent = "jobfleet/1.0 (+https://jobfleet.invalid)"

func init() {
	platform.Register("greenhouse", func(cfg map[string]string, deps platform.Deps) (platform.Scraper, error) {
		return New(cfg, deps)
	})
}

// Scraper drives a Greenhouse career site over plain HTTP, rate-limited
// per host. It checks robots.txt when present and logs a disallowed board
// path; the crawl goes ahead regardless.
type Scraper struct {
	sel     Selectors
	parser  Parser
	hc      *http.Client
	limiter *hostLimiter
	log     *slog.Logger
}

// New constructs a Greenhouse scraper from merged platform configuration.
// Unlike workday, this platform needs no browser: deps.OpenBrowser is
// never called.
func New(cfg map[string]string, deps platform.Deps) (*Scraper, error) {
	sel := defaultSelectors()
	sel.applyOverrides(cfg)
	return &Scraper{
		sel:     sel,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: newHostLimiter(2, 4),
		log:     deps.Log,
	}, nil
}

func (s *Scraper) Name() string { return "greenhouse" }

// Paginate fetches the board's single listing page (Greenhouse boards are
// not paginated: every job anchor is present in one document) and extracts
// a summary per distinct job link. maxPages is accepted for interface
// symmetry with browser-driven platforms but has no effect here.
func (s *Scraper) Paginate(ctx context.Context, company domain.Company, targetURL string, maxPages int) ([]domain.JobSummary, error) {
	s.checkRobots(ctx, targetURL)

	doc, err := s.getDocument(ctx, targetURL)
	if err != nil {
		s.log.Warn("greenhouse: board fetch failed", "url", targetURL, "err", err)
		return nil, nil
	}

	base, _ := url.Parse(targetURL)

	seen := map[string]struct{}{}
	var summaries []domain.JobSummary

	doc.Find(s.sel.JobAnchor).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs := resolveURL(base, href)
		if abs == "" || !looksLikeJobLink(abs) {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		title := cleanText(a.Text())
		locationRaw := cleanText(nearestLocation(a, s.sel.ListLocation))

		summaries = append(summaries, domain.JobSummary{
			Title:        title,
			DetailURL:    abs,
			LocationRaw:  locationRaw,
			LocationText: s.parser.ParseLocation(locationRaw),
		})
	})

	return summaries, nil
}

// FetchDetails fetches a single job's detail page and extracts the title,
// the content element's HTML as the description, and the job id parsed
// from the job URL. Network failures
// return placeholder values rather than an error, since one down job page
// should not abort an entire board.
func (s *Scraper) FetchDetails(ctx context.Context, jobURL string) (platform.Details, error) {
	doc, err := s.getDocument(ctx, jobURL)
	if err != nil {
		s.log.Warn("greenhouse: detail fetch failed", "url", jobURL, "err", err)
		return placeholderDetails(), nil
	}

	details := platform.Details{Description: "N/A", JobID: "N/A", Title: "N/A"}

	if t := cleanText(doc.Find(s.sel.DetailTitle).First().Text()); t != "" {
		details.Title = t
	}

	if sel := doc.Find(s.sel.DetailContent).First(); sel.Length() > 0 {
		if h, err := sel.Html(); err == nil && strings.TrimSpace(h) != "" {
			details.Description = h
		}
	}

	details.JobID = s.parser.ParseJobID(extractJobID(jobURL))

	return details, nil
}

func (s *Scraper) getDocument(ctx context.Context, target string) (*goquery.Document, error) {
	if err := s.limiter.wait(ctx, target); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("greenhouse: %s returned status %d", target, res.StatusCode)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

// checkRobots fetches and logs (but does not enforce) a board's
// robots.txt disallow rules for this scraper's user agent, surfacing
// politeness violations for operators without hard-failing the crawl.
func (s *Scraper) checkRobots(ctx context.Context, targetURL string) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return
	}

	robotsData, err := fetchRobots(ctx, s.hc, base)
	if err != nil {
		return
	}

	grp := robotsData.FindGroup(userAgent)
	if grp != nil && !grp.Test(base.Path) {
		s.log.Warn("greenhouse: board listing path disallowed by robots.txt", "url", targetURL)
	}
}

func fetchRobots(ctx context.Context, client *http.Client, base *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("greenhouse: non-200 robots.txt")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}

// nearestLocation looks for a location element in the anchor's enclosing
// row or list item, the common default-theme shape where title and
// location are sibling cells rather than both inside the anchor.
func nearestLocation(a *goquery.Selection, locationSelector string) string {
	row := a.Closest("tr, li")
	if row.Length() == 0 {
		return ""
	}
	return row.Find(locationSelector).First().Text()
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func looksLikeJobLink(abs string) bool {
	low := strings.ToLower(abs)
	return strings.Contains(low, "greenhouse.io") && strings.Contains(low, "/jobs/")
}

func extractJobID(jobURL string) string {
	parts := strings.Split(jobURL, "/jobs/")
	if len(parts) < 2 {
		return ""
	}
	tail := parts[1]
	id := ""
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			id += string(r)
			continue
		}
		break
	}
	return id
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func placeholderDetails() platform.Details {
	return platform.Details{Description: "N/A", JobID: "N/A", Title: "N/A"}
}
