package deckpdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Slide containers tried, in order, when capturing only the slide element.
var slideElements = plain(
	`[data-testid*="slide" i]`,
	`[class*="slideContainer" i]`,
	`[class*="slide-container" i]`,
	`[class*="presentationSlide" i]`,
	`[class*="SlideView" i]`,
	`canvas`,
	`[class*="player" i] [class*="slide" i]`,
)

// minSlideSide filters out thumbnails and icons when looking for the slide.
const minSlideSide = 100

// Capture screenshots every slide of the deck showing on s, advancing with
// the configured key between shots.
//
// Capture stops when est slides have been taken, when the safety ceiling
// is reached, or when advancing stops changing the screen. A screenshot
// identical to the previous one gets exactly one more advance; if the
// screen is still unchanged the deck has ended, otherwise the new
// screenshot is kept as the next slide. A deck whose consecutive slides
// render identically will therefore be cut short.
//
// s must not be used by anything else while Capture runs.
func Capture(ctx context.Context, s Surface, est SlideCount, opts ...Option) (*CaptureResult, error) {
	cfg := newConfig(opts)
	e := &engine{s: s, cfg: cfg, log: cfg.logger}

	start := time.Now()
	res, err := e.run(ctx, est)
	cfg.metrics.observe(time.Since(start).Seconds())
	return res, err
}

type engine struct {
	s     Surface
	cfg   config
	log   *slog.Logger
	slide Element
}

func (e *engine) run(ctx context.Context, est SlideCount) (*CaptureResult, error) {
	limit := e.cfg.maxSlides
	target, known := est.Value()
	if known && target > limit {
		e.log.Warn("estimated slide count exceeds safety ceiling", "estimate", target, "ceiling", limit)
	}

	if e.cfg.clipToSlide {
		e.slide = e.findSlide(ctx)
	}
	if e.slide == nil {
		e.log.Info("capturing full viewport")
	}

	res := &CaptureResult{}
	var prev []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shot, err := e.snapshot(ctx)
		if err != nil {
			return nil, err
		}

		if prev != nil && bytes.Equal(shot, prev) {
			e.advance(ctx)
			verify, err := e.snapshot(ctx)
			if err != nil {
				return nil, err
			}
			if bytes.Equal(verify, prev) {
				e.log.Info("detected end of deck", "duplicate_at", len(res.Frames)+1)
				res.Stop = StopDuplicate
				break
			}
			shot = verify
		}

		prev = shot
		f := Frame{Index: len(res.Frames) + 1, Data: shot, CapturedAt: time.Now()}
		res.Frames = append(res.Frames, f)
		e.cfg.metrics.frame()
		e.log.Debug("captured slide", "index", f.Index, "estimate", est.String(), "bytes", len(shot))
		if e.cfg.onFrame != nil {
			e.cfg.onFrame(f, est)
		}

		if known && len(res.Frames) >= target {
			res.Stop = StopEstimate
			break
		}
		if len(res.Frames) >= limit {
			e.log.Warn("safety ceiling reached, stopping capture", "ceiling", limit)
			res.Stop = StopCeiling
			break
		}

		e.advance(ctx)
	}

	e.cfg.metrics.stop(res.Stop)
	return res, nil
}

// advance moves to the next slide and waits for the transition to settle.
// Neither a failed key press nor a busy network is fatal: the duplicate
// check catches a deck that did not move.
func (e *engine) advance(ctx context.Context) {
	if err := e.s.KeyPress(ctx, e.cfg.advanceKey); err != nil {
		e.log.Warn("advance key press failed", "key", e.cfg.advanceKey, "error", err)
	}
	waitTransition(ctx, e.s, e.cfg.timings, e.log)
}

func waitTransition(ctx context.Context, s Surface, t Timings, log *slog.Logger) {
	if err := sleep(ctx, t.Transition); err != nil {
		return
	}
	if err := s.WaitForQuiescence(ctx, t.TransitionIdle); err != nil {
		log.Debug("network still busy after transition", "error", err)
	}
}

// snapshot captures the slide element when one is in use, else the viewport.
func (e *engine) snapshot(ctx context.Context) ([]byte, error) {
	if e.slide != nil {
		data, err := e.slide.Screenshot(ctx)
		if err == nil {
			return data, nil
		}
		e.log.Debug("slide element screenshot failed, locating it again", "error", err)
		if e.slide = e.findSlide(ctx); e.slide != nil {
			if data, err := e.slide.Screenshot(ctx); err == nil {
				return data, nil
			}
			e.slide = nil
		}
		e.log.Info("falling back to full viewport capture")
	}

	data, err := e.s.Screenshot(ctx)
	if err != nil {
		return nil, newCaptureError(CodeSnapshot, "capture", fmt.Errorf("%w: %v", ErrSnapshot, err))
	}
	return data, nil
}

// findSlide returns the first visible slide container of a useful size.
func (e *engine) findSlide(ctx context.Context) Element {
	for _, l := range slideElements {
		el, err := l.find(ctx, e.s)
		if err != nil || el == nil {
			continue
		}
		box, ok := el.BoundingBox(ctx)
		if ok && box.Width > minSlideSide && box.Height > minSlideSide {
			e.log.Debug("capturing slide element", "selector", l.String())
			return el
		}
	}
	return nil
}
