// Package fleet is the Fleet Driver: it iterates all configured job
// boards, groups them by platform, and dispatches one orchestrator run per
// board, one browser per board. Boards are scraped sequentially by
// default; MaxConcurrent exists only for a caller that deliberately wants
// boards to overlap.
package fleet

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"jobfleet/internal/boardlock"
	"jobfleet/internal/boardsource"
	"jobfleet/internal/browser"
	"jobfleet/internal/locateintel"
	"jobfleet/internal/pipeline"
	"jobfleet/internal/platform"
	"jobfleet/internal/store"
)

// Options controls one fleet run. Exit status is the caller's concern:
// this package reports per-board failures through the returned Report
// rather than an error, reserving errors for configuration problems that
// prevent the run from starting at all.
type Options struct {
	MaxPages      int
	ToCSV         bool
	OutputFile    string
	ShowProgress  bool
	BoardLockDir  string
	MaxConcurrent int
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 1
	}
	return o
}

// BoardResult is one board's outcome within a fleet run.
type BoardResult struct {
	Board   boardsource.Board
	Written int
	Err     error
}

// Report summarizes a whole fleet run. RunID is a fresh identifier per
// invocation, logged alongside every board's progress so operators can
// correlate log lines from one run in a shared log stream.
type Report struct {
	RunID  string
	Boards []BoardResult
}

// Driver wires together every component an orchestrator run needs:
// browser lifecycle, location enrichment, and the store adapter.
type Driver struct {
	log      *slog.Logger
	boards   boardsource.Source
	st       *store.Store
	location *locateintel.Parser
	binary   string
	lockDir  string
}

// New constructs a fleet Driver.
func New(log *slog.Logger, boards boardsource.Source, st *store.Store, location *locateintel.Parser, browserBinary, lockDir string) *Driver {
	return &Driver{log: log, boards: boards, st: st, location: location, binary: browserBinary, lockDir: lockDir}
}

// Run loads all boards and drives one orchestrator run per board, one
// browser per board, boards scraped sequentially by default
// (MaxConcurrent defaults to 1) per the documented concurrency model.
// MaxConcurrent is exposed only for a caller that deliberately wants
// boards to overlap; the Fleet Driver itself never raises it.
func (d *Driver) Run(ctx context.Context, opts Options) (Report, error) {
	opts = opts.withDefaults()
	runID := uuid.New().String()
	d.log.Info("fleet run starting", "run_id", runID)

	boards, err := d.boards.List()
	if err != nil {
		return Report{}, fmt.Errorf("fleet: load boards: %w", err)
	}
	sort.SliceStable(boards, func(i, j int) bool { return boards[i].Platform < boards[j].Platform })

	// Every board's crawl logs through a logger tagged with this run's id.
	runDriver := *d
	runDriver.log = d.log.With("run_id", runID)

	sem := make(chan struct{}, opts.MaxConcurrent)
	results := make([]BoardResult, len(boards))

	var wg sync.WaitGroup
	for i, b := range boards {
		i, b := i, b
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = runDriver.runBoard(ctx, b, opts)
		}()
	}
	wg.Wait()

	report := Report{RunID: runID, Boards: results}
	if opts.ToCSV {
		if err := writeCSV(opts.OutputFile, report); err != nil {
			d.log.Warn("fleet: csv export failed", "err", err)
		}
	}

	return report, nil
}

func (d *Driver) runBoard(ctx context.Context, b boardsource.Board, opts Options) BoardResult {
	result := BoardResult{Board: b}

	lock := boardlock.For(opts.BoardLockDir, b.Link)
	if err := lock.Acquire(ctx); err != nil {
		result.Err = fmt.Errorf("acquire board lock: %w", err)
		return result
	}
	defer lock.Release()

	var openedDriver *browser.Driver
	openBrowser := func() (*browser.Driver, error) {
		drv, err := browser.Open(ctx, d.log, d.binary)
		if err != nil {
			return nil, fmt.Errorf("open browser: %w", err)
		}
		openedDriver = drv
		return drv, nil
	}

	scraper, err := platform.CreateScraper(b.Platform, nil, nil, platform.Deps{OpenBrowser: openBrowser, Log: d.log})
	if err != nil {
		result.Err = err
		return result
	}
	if openedDriver != nil {
		defer openedDriver.Close()
	}

	company, err := d.st.ResolveCompany(ctx, b.CompanyName)
	if err != nil {
		result.Err = fmt.Errorf("resolve company: %w", err)
		return result
	}

	orch := pipeline.New(d.log, d.location)
	records, err := orch.Run(ctx, company, b.Link, scraper, pipeline.Options{
		MaxPages:     opts.MaxPages,
		ShowProgress: opts.ShowProgress,
	})
	if err != nil {
		result.Err = fmt.Errorf("orchestrate: %w", err)
		return result
	}

	insertResult := d.st.InsertBatch(ctx, b.Link, records)
	for _, f := range insertResult.Failures {
		d.log.Warn("fleet: record failed to persist", "board", b.Link, "reason", f)
	}
	result.Written = insertResult.SuccessCount

	return result
}

func writeCSV(path string, report Report) error {
	if path == "" {
		path = "fleet-report.csv"
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"board", "platform", "written", "error"}); err != nil {
		return err
	}

	for _, r := range report.Boards {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		if err := w.Write([]string{r.Board.Link, r.Board.Platform, strconv.Itoa(r.Written), errMsg}); err != nil {
			return err
		}
	}

	return nil
}
