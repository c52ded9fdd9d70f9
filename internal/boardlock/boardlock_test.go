package boardlock

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"
)

func TestForIsDeterministicByURL(t *testing.T) {
	dir := t.TempDir()
	a := For(dir, "https://boards.example.com/acme")
	b := For(dir, "https://boards.example.com/acme")

	sum := sha1.Sum([]byte("https://boards.example.com/acme"))
	want := filepath.Join(dir, hex.EncodeToString(sum[:])+".lock")

	if a.fl.Path() != want {
		t.Errorf("For() path = %q, want %q", a.fl.Path(), want)
	}
	if a.fl.Path() != b.fl.Path() {
		t.Error("For() produced different paths for the same URL")
	}
}

func TestForDiffersByURL(t *testing.T) {
	dir := t.TempDir()
	a := For(dir, "https://boards.example.com/acme")
	b := For(dir, "https://boards.example.com/globex")
	if a.fl.Path() == b.fl.Path() {
		t.Error("For() produced the same path for two different URLs")
	}
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lock := For(dir, "https://boards.example.com/acme")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := lock.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestAcquireBlocksWhileHeldByAnotherLock(t *testing.T) {
	dir := t.TempDir()
	url := "https://boards.example.com/acme"

	first := For(dir, url)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := first.Acquire(ctx); err != nil {
		t.Fatalf("first.Acquire() error = %v", err)
	}
	defer first.Release()

	second := For(dir, url)
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer shortCancel()

	err := second.Acquire(shortCtx)
	if err == nil {
		t.Fatal("second.Acquire() succeeded while first lock was held, want context deadline error")
	}
}
