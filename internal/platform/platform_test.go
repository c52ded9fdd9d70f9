package platform

import (
	"context"
	"errors"
	"testing"

	"jobfleet/internal/browser"
	"jobfleet/internal/domain"
)

type stubScraper struct{ cfg map[string]string }

func (s *stubScraper) Name() string { return "stub" }
func (s *stubScraper) Paginate(ctx context.Context, company domain.Company, targetURL string, maxPages int) ([]domain.JobSummary, error) {
	return nil, nil
}
func (s *stubScraper) FetchDetails(ctx context.Context, jobURL string) (Details, error) {
	return Details{}, nil
}

func TestCreateScraperUnknownPlatform(t *testing.T) {
	_, err := CreateScraper("does-not-exist", nil, nil, Deps{})
	var unknown ErrUnknownPlatform
	if !errors.As(err, &unknown) {
		t.Fatalf("CreateScraper() error = %v, want ErrUnknownPlatform", err)
	}
	if unknown.Name != "does-not-exist" {
		t.Errorf("ErrUnknownPlatform.Name = %q, want %q", unknown.Name, "does-not-exist")
	}
}

func TestCreateScraperMergesDefaultsAndCallerConfig(t *testing.T) {
	var captured map[string]string
	Register("test-platform-merge", func(cfg map[string]string, deps Deps) (Scraper, error) {
		captured = cfg
		return &stubScraper{cfg: cfg}, nil
	})

	_, err := CreateScraper("test-platform-merge",
		map[string]string{"a": "default-a", "b": "default-b"},
		map[string]string{"b": "caller-b", "c": "caller-c"},
		Deps{},
	)
	if err != nil {
		t.Fatalf("CreateScraper() error = %v", err)
	}

	if captured["a"] != "default-a" {
		t.Errorf("a = %q, want default to survive", captured["a"])
	}
	if captured["b"] != "caller-b" {
		t.Errorf("b = %q, want caller override to win", captured["b"])
	}
	if captured["c"] != "caller-c" {
		t.Errorf("c = %q, want caller-only key present", captured["c"])
	}
}

func TestDepsOpenBrowserIsLazy(t *testing.T) {
	called := false
	deps := Deps{OpenBrowser: func() (*browser.Driver, error) {
		called = true
		return nil, nil
	}}

	Register("test-platform-lazy", func(cfg map[string]string, d Deps) (Scraper, error) {
		return &stubScraper{}, nil
	})

	if _, err := CreateScraper("test-platform-lazy", nil, nil, deps); err != nil {
		t.Fatalf("CreateScraper() error = %v", err)
	}
	if called {
		t.Error("OpenBrowser was called even though the factory never invoked it")
	}
}

func TestErrUnknownPlatformMessage(t *testing.T) {
	err := ErrUnknownPlatform{Name: "xyz"}
	if err.Error() != "platform: unknown platform xyz" {
		t.Errorf("Error() = %q", err.Error())
	}
}
