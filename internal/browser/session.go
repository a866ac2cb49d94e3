package browser

import (
	"context"
	"time"
)

// Session is one controllable headless-browser instance. Sessions are
// expensive to start, so one is shared per validator type for the
// duration of a batch run (see Pool).
type Session interface {
	// Navigate loads url and returns once navigation commits.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	// A timeout surfaces as context.DeadlineExceeded.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// PageSource returns the current rendered document.
	PageSource(ctx context.Context) (string, error)
	// CurrentURL returns the resolved URL after any redirects.
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

// NewSessionFunc creates a fresh session; validators that render pages
// expose one so the pool can lazily start their browser.
type NewSessionFunc func(ctx context.Context) (Session, error)
