package deckpdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// PageSize is a PDF page size in inches.
type PageSize struct {
	Width  float64 // Width in inches.
	Height float64 // Height in inches.
}

// pageSizeFor returns the page that shows a w x h pixel image at dpi.
func pageSizeFor(w, h int, dpi float64) PageSize {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return PageSize{Width: float64(w) / dpi, Height: float64(h) / dpi}
}

// frameSize decodes only the image header of a frame.
func frameSize(f Frame) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("deckpdf: decoding slide %d: %w", f.Index, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("deckpdf: slide %d has no pixels", f.Index)
	}
	return cfg.Width, cfg.Height, nil
}

// Landscape reports whether the page is wider than it is tall.
func (p PageSize) Landscape() bool {
	return p.Width > p.Height
}

// points converts inches to PDF points.
func points(in float64) float64 {
	return in * 72
}
