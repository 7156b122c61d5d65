package deckpdf

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
)

// browser is one Chrome process shared by a surface and an assembler.
type browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// launch starts a Chrome process configured from cfg. The first tab of the
// returned browser is ready for use through browserCtx.
func launch(cfg config) (*browser, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(int(cfg.viewportWidth), int(cfg.viewportHeight)),
	)
	if cfg.headless != "" {
		allocOpts = append(allocOpts, chromedp.Flag("headless", cfg.headless))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	chromePath := cfg.chromePath
	if chromePath == "" && cfg.autoDownload {
		p, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		chromePath = p
	}
	if chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("deckpdf: starting browser: %w", err)
	}

	return &browser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// close shuts the browser down. It is idempotent.
func (b *browser) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.browserCancel()
	b.allocCancel()
}

func (b *browser) checkClosed() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// resolveBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored in ~/.cache/rod/browser (Unix) or %APPDATA%\rod\browser (Windows).
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("deckpdf: downloading browser: %w", err)
	}
	return path, nil
}
