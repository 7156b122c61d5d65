package deckpdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Assembler turns captured frames into a single document.
type Assembler interface {
	// Assemble lays out frames one per page in the order given. It returns
	// ErrEmptyCapture when frames is empty.
	Assemble(ctx context.Context, frames []Frame) (*Result, error)
}

// PrintAssembler assembles frames by laying them out as HTML pages and
// printing them to PDF with Chrome. Each page is sized so the first
// frame fills it at the configured DPI; frames of a different size are
// scaled to fit.
type PrintAssembler struct {
	cfg   config
	b     *browser
	owned bool
}

// NewPrintAssembler starts a dedicated browser for printing. The caller
// must call [PrintAssembler.Close]. To reuse the browser of a capture
// session use [ChromeSurface.Assembler] instead.
func NewPrintAssembler(opts ...Option) (*PrintAssembler, error) {
	cfg := newConfig(opts)
	b, err := launch(cfg)
	if err != nil {
		return nil, err
	}
	return &PrintAssembler{cfg: cfg, b: b, owned: true}, nil
}

// Close releases the browser if this assembler started it.
func (a *PrintAssembler) Close() error {
	if a.owned {
		a.b.close()
	}
	return nil
}

// Assemble implements [Assembler].
func (a *PrintAssembler) Assemble(ctx context.Context, frames []Frame) (*Result, error) {
	if len(frames) == 0 {
		return nil, newCaptureError(CodeEmptyCapture, "assemble", ErrEmptyCapture)
	}
	if err := a.b.checkClosed(); err != nil {
		return nil, err
	}

	w, h, err := frameSize(frames[0])
	if err != nil {
		return nil, err
	}
	size := pageSizeFor(w, h, a.cfg.dpi)

	dir, err := os.MkdirTemp("", "deckpdf-*")
	if err != nil {
		return nil, fmt.Errorf("deckpdf: creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = fmt.Sprintf("slide-%04d.png", i+1)
		if err := os.WriteFile(filepath.Join(dir, names[i]), f.Data, 0o600); err != nil {
			return nil, fmt.Errorf("deckpdf: writing slide %d: %w", f.Index, err)
		}
	}

	doc, err := deckHTML(names, size)
	if err != nil {
		return nil, err
	}
	index := filepath.Join(dir, "index.html")
	if err := os.WriteFile(index, []byte(doc), 0o600); err != nil {
		return nil, fmt.Errorf("deckpdf: writing page layout: %w", err)
	}

	a.cfg.logger.Debug("printing slides",
		"slides", len(frames),
		"width_pt", points(size.Width),
		"height_pt", points(size.Height),
		"landscape", size.Landscape(),
		"dpi", a.cfg.dpi)

	buf, err := a.print(ctx, "file://"+filepath.ToSlash(index), size)
	if err != nil {
		return nil, err
	}
	return &Result{data: buf, pages: len(frames)}, nil
}

// print renders targetURL to PDF in a fresh tab.
func (a *PrintAssembler) print(ctx context.Context, targetURL string, size PageSize) ([]byte, error) {
	if t := a.cfg.timings.Navigate; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(a.b.browserCtx)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(size.Width).
				WithPaperHeight(size.Height).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("deckpdf: printing slides: %w", err)
	}
	return buf, nil
}

// AssembleFrames prints frames to PDF using a temporary browser.
// For repeated use, create a [PrintAssembler] to reuse the browser.
func AssembleFrames(ctx context.Context, frames []Frame, opts ...Option) (*Result, error) {
	if len(frames) == 0 {
		return nil, newCaptureError(CodeEmptyCapture, "assemble", ErrEmptyCapture)
	}
	a, err := NewPrintAssembler(opts...)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Assemble(ctx, frames)
}
