// Package deckpdf captures the slides of an interactive web presentation
// and assembles them into a single PDF, one slide per page.
//
// Presentation players such as pitch.com render slides with scripts and
// offer no export. deckpdf drives a headless Chrome tab like a viewer
// would: it loads the deck, gets past an email gate, reads the slide
// count, switches to presentation mode and screenshots each slide while
// pressing the right arrow key.
//
// # One-shot capture
//
//	res, err := deckpdf.CaptureDeck(ctx, "https://pitch.com/v/example", "me@example.com", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = res.WriteToFile("deck.pdf", 0o644)
//
// # Step by step
//
// Each stage is exposed on its own and works against any [Surface], which
// makes the state machine testable without a browser:
//
//	s, err := deckpdf.NewChromeSurface(deckpdf.WithNoSandbox())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	state, err := deckpdf.ResolveGate(ctx, s, email)
//	est := deckpdf.EstimateSlideCount(ctx, s)
//	frames, err := deckpdf.Capture(ctx, s, est)
//	res, err := s.Assembler().Assemble(ctx, frames.Frames)
//
// Capture stops at the estimated slide count, at a safety ceiling of
// [DefaultMaxSlides], or when advancing no longer changes the screen.
//
// # Errors
//
// Fatal failures are reported as a [*CaptureError] that wraps one of
// [ErrMissingIdentity], [ErrNavigation], [ErrSnapshot] or
// [ErrEmptyCapture]. Everything else, such as a dialog that never showed
// up, is logged and skipped.
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload].
package deckpdf
