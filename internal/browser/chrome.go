package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// chromeSession drives one headless Chrome via chromedp.
type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeSession starts a headless Chrome and verifies it is usable.
// The session stays alive until Close.
func NewChromeSession(parent context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Force the browser process up now so startup failures surface here,
	// not on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}

// run executes actions on the long-lived session context but honors the
// caller's deadline.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(s.ctx, actions...) }()
	return awaitDone(ctx, done)
}

// awaitDone returns the action's result unless the caller's context ends
// first, in which case the context error wins.
func awaitDone(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
