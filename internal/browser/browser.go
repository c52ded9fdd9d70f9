// Package browser owns the headless-browser lifecycle shared by every
// platform scraper: launch, isolated context creation, navigation with
// resource-type blocking, and the scroll/pagination primitives platforms
// build their pagination strategy on top of.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrAborted marks a browsing-context failure that must not be retried:
// the page or its incognito context was torn down mid-operation. Platform
// scrapers wrap this error (via fmt.Errorf("%w: ...", ErrAborted, cause))
// rather than returning a bare navigation error, so callers up the stack
// can tell "retry me" apart from "give up on this job".
var ErrAborted = errors.New("browser: browsing context closed")

// IsTargetClosed reports whether err looks like a closed-target or
// canceled-context failure from rod, the condition platform scrapers
// should surface as ErrAborted instead of a retryable error.
func IsTargetClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "target closed") || strings.Contains(msg, "context canceled")
}

// blockedURLPatterns mirrors the Python original's network route that
// aborts images, stylesheets, and webfonts for speed and politeness.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp",
	"*.css",
	"*.woff", "*.woff2", "*.ttf", "*.eot",
}

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Driver owns one headless browser process for the lifetime of a single
// board crawl.
type Driver struct {
	log     *slog.Logger
	browser *rod.Browser
	launch  *launcher.Launcher
}

// Session wraps a rod page; the page's Browser() is the browser context it
// belongs to, so Close can release both in the right order.
type Session struct {
	Page *rod.Page
}

// Open launches a local headless Chromium instance and connects to it.
// binaryPath, if non-empty, overrides auto-discovery of the Chromium
// binary (mirrors the teacher's launcher.LookPath fallback).
func Open(ctx context.Context, log *slog.Logger, binaryPath string) (*Driver, error) {
	var l *launcher.Launcher
	if binaryPath != "" {
		l = launcher.New().Bin(binaryPath)
	} else if path, has := launcher.LookPath(); has {
		l = launcher.New().Bin(path)
	} else {
		l = launcher.New()
	}
	l = l.Headless(true).NoSandbox(true)

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	return &Driver{log: log, browser: b, launch: l}, nil
}

// Close tears down the browser process. Pages/contexts must be closed by
// the caller first; Close is safe to call even if some were not.
func (d *Driver) Close() {
	_ = d.browser.Close()
	if d.launch != nil {
		d.launch.Kill()
	}
}

func (d *Driver) applyPageDefaults(page *rod.Page) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: desktopUserAgent}); err != nil {
		return err
	}
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(page); err != nil {
		return err
	}
	return proto.NetworkSetBlockedURLs{Urls: blockedURLPatterns}.Call(page)
}

// OpenSession creates the board's primary browsing context and navigates
// it to targetURL with a 20s timeout. A navigation timeout is logged but
// not returned as an error: the caller may still extract a partial page.
func (d *Driver) OpenSession(ctx context.Context, targetURL string) (*Session, error) {
	page, err := d.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return nil, err
	}
	if err := d.applyPageDefaults(page); err != nil {
		_ = page.Close()
		return nil, err
	}

	timedPage := page.Timeout(20 * time.Second)
	if err := timedPage.WaitLoad(); err != nil {
		d.log.Warn("navigation timed out, continuing with partial page", "url", targetURL, "err", err)
	}

	return &Session{Page: page}, nil
}

// OpenIsolatedContext creates a brand-new incognito browser context and
// navigates a fresh page in it to targetURL with a 60s timeout, so a
// hung or crashed detail page cannot affect its siblings.
func (d *Driver) OpenIsolatedContext(ctx context.Context, targetURL string) (*Session, error) {
	incognito, err := d.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, err
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		return nil, err
	}
	if err := d.applyPageDefaults(page); err != nil {
		_ = page.Close()
		return nil, err
	}

	timedPage := page.Timeout(60 * time.Second)
	if err := timedPage.WaitLoad(); err != nil {
		d.log.Warn("detail navigation timed out, continuing with partial page", "url", targetURL, "err", err)
	}

	return &Session{Page: page}, nil
}

// Close closes the session's page and then, for a session created by
// OpenIsolatedContext, disposes the incognito context the page lived in.
// The primary session's default context is left to Driver.Close.
func (s *Session) Close() {
	owner := s.Page.Browser()
	_ = s.Page.Close()
	if owner != nil && owner.BrowserContextID != "" {
		_ = owner.Close()
	}
}

// ScrollToExhaust repeatedly scrolls to the bottom of the page, counting
// elements matching itemSelector after each scroll. It stops after 5
// consecutive iterations with no growth in count, with a hard cap of 20
// iterations total. Designed for infinite-scroll listing pages.
func (d *Driver) ScrollToExhaust(page *rod.Page, itemSelector string) error {
	const maxAttempts = 20
	const maxStagnant = 5

	lastCount := -1
	stagnant := 0

	for i := 0; i < maxAttempts; i++ {
		if err := page.Mouse.Scroll(0, 10000, 1); err != nil {
			return err
		}
		time.Sleep(1000 * time.Millisecond)

		elements, err := page.Elements(itemSelector)
		if err != nil {
			return err
		}
		count := len(elements)

		if count > lastCount {
			stagnant = 0
		} else {
			stagnant++
		}
		lastCount = count

		if stagnant >= maxStagnant {
			break
		}
	}

	return nil
}

// HasPagination probes for paginationSelector with a 5s timeout.
// Non-existence is not an error.
func (d *Driver) HasPagination(page *rod.Page, paginationSelector string) bool {
	_, err := page.Timeout(5 * time.Second).Element(paginationSelector)
	return err == nil
}

// ClickNext clicks the next-page control if present and not disabled,
// reporting whether a navigation was triggered.
func (d *Driver) ClickNext(page *rod.Page, nextSelector string) (bool, error) {
	el, err := page.Timeout(2 * time.Second).Element(nextSelector)
	if err != nil {
		return false, nil
	}

	disabled, err := el.Attribute("disabled")
	if err == nil && disabled != nil {
		return false, nil
	}
	ariaDisabled, err := el.Attribute("aria-disabled")
	if err == nil && ariaDisabled != nil && *ariaDisabled == "true" {
		return false, nil
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}

	if err := page.Timeout(10 * time.Second).WaitDOMStable(time.Second, 0); err != nil {
		d.log.Warn("pagination click: DOM did not settle before timeout", "err", err)
	}

	return true, nil
}
