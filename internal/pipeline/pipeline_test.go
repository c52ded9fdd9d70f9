package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"jobfleet/internal/domain"
	"jobfleet/internal/locateintel"
	"jobfleet/internal/platform"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopLocationParser() *locateintel.Parser {
	return locateintel.New(discardLogger(), false, "", "", "", time.Second, 1, locateintel.NewMemoryCache())
}

// fakeScraper is a hand-rolled platform.Scraper stub, in the teacher's
// fake-service test style: its fields configure behavior, no
// mocking library involved.
type fakeScraper struct {
	summaries []domain.JobSummary
	pagErr    error

	detailErr    map[string]error // per-URL error, consulted before detailSeq
	detailSeq    map[string]int   // per-URL failure count before success
	detailCalls  map[string]*int32
	detailResult platform.Details
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) Paginate(ctx context.Context, company domain.Company, targetURL string, maxPages int) ([]domain.JobSummary, error) {
	return f.summaries, f.pagErr
}

func (f *fakeScraper) FetchDetails(ctx context.Context, jobURL string) (platform.Details, error) {
	if f.detailCalls == nil {
		f.detailCalls = map[string]*int32{}
	}
	if f.detailCalls[jobURL] == nil {
		var n int32
		f.detailCalls[jobURL] = &n
	}
	n := atomic.AddInt32(f.detailCalls[jobURL], 1)

	if failUntil, ok := f.detailSeq[jobURL]; ok && int(n) <= failUntil {
		return platform.Details{}, errors.New("transient failure")
	}
	if err, ok := f.detailErr[jobURL]; ok {
		return platform.Details{}, err
	}

	result := f.detailResult
	if result.Title == "" {
		result.Title = "Detail Title"
	}
	return result, nil
}

func (f *fakeScraper) callsFor(url string) int32 {
	if f.detailCalls == nil || f.detailCalls[url] == nil {
		return 0
	}
	return atomic.LoadInt32(f.detailCalls[url])
}

func TestRunDedupesAndFiltersOldPostings(t *testing.T) {
	scraper := &fakeScraper{
		summaries: []domain.JobSummary{
			{Title: "Engineer A", DetailURL: "https://x/1"},
			{Title: "Engineer B", DetailURL: "https://x/2", DatePostedRaw: "Posted 30+ Days Ago"},
			{Title: "Engineer A dup", DetailURL: "https://x/1"},
		},
	}

	orch := New(discardLogger(), noopLocationParser())
	records, err := orch.Run(context.Background(), domain.Company{Name: "Acme"}, "https://x/board", scraper, Options{DetailRetries: 1, DetailBackoff: time.Millisecond})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Run() returned %d records, want 1 (dedup + filter 30+ days)", len(records))
	}
	if records[0].DetailURL != "https://x/1" {
		t.Errorf("surviving record = %+v", records[0])
	}
}

func TestRunContinuesOnPaginationError(t *testing.T) {
	scraper := &fakeScraper{pagErr: fmt.Errorf("board unreachable")}

	orch := New(discardLogger(), noopLocationParser())
	records, err := orch.Run(context.Background(), domain.Company{Name: "Acme"}, "https://x/board", scraper, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (pagination errors are logged, not propagated)", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want empty", records)
	}
}

func TestFetchOneWithRetryRetriesTransientFailures(t *testing.T) {
	scraper := &fakeScraper{
		detailSeq: map[string]int{"https://x/1": 2},
	}
	orch := New(discardLogger(), noopLocationParser())

	record, err := orch.fetchOneWithRetry(context.Background(), domain.JobSummary{DetailURL: "https://x/1"}, domain.Company{Name: "Acme"}, "https://x/board", scraper, Options{DetailRetries: 3, DetailBackoff: time.Millisecond})
	if err != nil {
		t.Fatalf("fetchOneWithRetry() error = %v, want nil after eventual success", err)
	}
	if record == nil {
		t.Fatal("fetchOneWithRetry() returned nil record on success")
	}
	if scraper.callsFor("https://x/1") != 3 {
		t.Errorf("FetchDetails called %d times, want 3 (2 failures + 1 success)", scraper.callsFor("https://x/1"))
	}
}

func TestFetchOneWithRetryAbortsImmediatelyOnErrAborted(t *testing.T) {
	scraper := &fakeScraper{
		detailErr: map[string]error{"https://x/1": fmt.Errorf("%w: context gone", ErrAborted)},
	}
	orch := New(discardLogger(), noopLocationParser())

	_, err := orch.fetchOneWithRetry(context.Background(), domain.JobSummary{DetailURL: "https://x/1"}, domain.Company{Name: "Acme"}, "https://x/board", scraper, Options{DetailRetries: 5, DetailBackoff: time.Millisecond})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("fetchOneWithRetry() error = %v, want wrapping ErrAborted", err)
	}
	if scraper.callsFor("https://x/1") != 1 {
		t.Errorf("FetchDetails called %d times, want 1 (no retry on ErrAborted)", scraper.callsFor("https://x/1"))
	}
}

func TestFetchOneWithRetryExhaustsRetries(t *testing.T) {
	scraper := &fakeScraper{
		detailSeq: map[string]int{"https://x/1": 99},
	}
	orch := New(discardLogger(), noopLocationParser())

	_, err := orch.fetchOneWithRetry(context.Background(), domain.JobSummary{DetailURL: "https://x/1"}, domain.Company{Name: "Acme"}, "https://x/board", scraper, Options{DetailRetries: 3, DetailBackoff: time.Millisecond})
	if err == nil {
		t.Fatal("fetchOneWithRetry() error = nil, want error after exhausting retries")
	}
	if scraper.callsFor("https://x/1") != 3 {
		t.Errorf("FetchDetails called %d times, want 3 (DetailRetries)", scraper.callsFor("https://x/1"))
	}
}

func TestFilterAndDedupePreservesFirstSeenOrder(t *testing.T) {
	records := []domain.JobRecord{
		{JobSummary: domain.JobSummary{DetailURL: "https://x/1"}},
		{JobSummary: domain.JobSummary{DetailURL: "https://x/2"}},
		{JobSummary: domain.JobSummary{DetailURL: "https://x/1"}},
	}
	out := filterAndDedupe(records)
	if len(out) != 2 {
		t.Fatalf("filterAndDedupe() returned %d records, want 2", len(out))
	}
	if out[0].DetailURL != "https://x/1" || out[1].DetailURL != "https://x/2" {
		t.Errorf("order not preserved: %+v", out)
	}
}
