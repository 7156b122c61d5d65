package deckpdf

import (
	"context"
	"time"
)

// Box is the rendered size of an element in CSS pixels.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// Element is one node found on a [Surface].
type Element interface {
	// Visible reports whether the element is rendered with a non-empty box.
	// Any lookup failure reads as not visible.
	Visible(ctx context.Context) bool
	BoundingBox(ctx context.Context) (Box, bool)
	InnerText(ctx context.Context) (string, error)
	Fill(ctx context.Context, text string) error
	Click(ctx context.Context) error
	Press(ctx context.Context, key string) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Surface is a controllable rendered view: one browser tab, or a fake in
// tests. A Surface is stateful and exclusively owned by whoever drives it;
// implementations need not be safe for concurrent use.
type Surface interface {
	// Navigate loads url. When waitIdle is set it also waits for network
	// quiescence. A failure to load returns an error wrapping ErrNavigation.
	Navigate(ctx context.Context, url string, waitIdle bool, timeout time.Duration) error

	// Back navigates one entry back in the tab's history.
	Back(ctx context.Context) error

	// Query returns the first element matching css, or nil when none does.
	Query(ctx context.Context, css string) (Element, error)

	// QueryAll returns every element matching css. Absence is an empty slice.
	QueryAll(ctx context.Context, css string) ([]Element, error)

	// Text returns the visible text of the document body.
	Text(ctx context.Context) (string, error)

	KeyPress(ctx context.Context, key string) error
	MouseClick(ctx context.Context, x, y float64) error
	MouseMove(ctx context.Context, x, y float64) error

	// Screenshot returns a PNG of the visible area.
	Screenshot(ctx context.Context) ([]byte, error)

	// Evaluate runs script against the rendered document.
	Evaluate(ctx context.Context, script string) error

	// WaitForQuiescence blocks until no network request has been in flight
	// for a short idle window, or until timeout elapses. A timeout is
	// reported as an error that callers are free to ignore.
	WaitForQuiescence(ctx context.Context, timeout time.Duration) error
}

// Key names understood by [Surface.KeyPress] and [Element.Press].
const (
	KeyArrowRight = "ArrowRight"
	KeyEnter      = "Enter"
	KeyFullscreen = "f"
)

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
