package deckpdf

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session is one capture run against one presentation.
type Session struct {
	// ID correlates the log lines of one run.
	ID string
	// Location is the presentation URL.
	Location string
	// Identity is the email address offered to an email gate, if any.
	Identity string
	// Debug shows the browser and pauses before capture.
	Debug bool
}

// NewSession validates location and returns a session with a fresh ID.
func NewSession(location, identity string, debug bool) (Session, error) {
	if _, err := url.ParseRequestURI(location); err != nil {
		return Session{}, fmt.Errorf("deckpdf: invalid URL %q: %w", location, err)
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	return Session{
		ID:       id.String(),
		Location: location,
		Identity: strings.TrimSpace(identity),
		Debug:    debug,
	}, nil
}

// IsPitchURL reports whether location points at pitch.com, the player the
// selectors and timings are tuned for.
func IsPitchURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "pitch.com" || strings.HasSuffix(host, ".pitch.com")
}

// Run drives a whole session on s: it loads the deck, clears an email gate,
// estimates the slide count, switches the player to presentation mode,
// captures every slide and hands the frames to asm.
//
// Fatal failures are ErrNavigation, ErrMissingIdentity, ErrSnapshot and
// ErrEmptyCapture, each wrapped in a [*CaptureError]. Nothing is assembled
// when no slide was captured.
func Run(ctx context.Context, sess Session, s Surface, asm Assembler, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	log := cfg.logger.With("session", sess.ID)
	sub := make([]Option, 0, len(opts)+1)
	sub = append(append(sub, opts...), WithLogger(log))

	if !IsPitchURL(sess.Location) {
		log.Warn("URL does not appear to be a pitch.com link", "url", sess.Location)
	}

	t := cfg.timings
	log.Info("opening presentation", "url", sess.Location)
	if err := s.Navigate(ctx, sess.Location, true, t.Navigate); err != nil {
		return nil, err
	}

	state, err := ResolveGate(ctx, s, sess.Identity, sub...)
	if err != nil {
		return nil, err
	}
	log.Debug("gate resolved", "state", state.String())

	if err := sleep(ctx, t.Stabilize); err != nil {
		return nil, err
	}
	if cfg.pause != nil {
		cfg.pause()
	}

	est := EstimateSlideCount(ctx, s, sub...)

	if err := enterPresentation(ctx, s, cfg, log); err != nil {
		return nil, err
	}

	log.Info("capturing slides")
	res, err := Capture(ctx, s, est, sub...)
	if err != nil {
		return nil, err
	}
	log.Info("capture finished", "slides", res.Len(), "stop", res.Stop.String())
	if res.Len() == 0 {
		return nil, newCaptureError(CodeEmptyCapture, "capture", ErrEmptyCapture)
	}

	doc, err := asm.Assemble(ctx, res.Frames)
	if err != nil {
		return nil, err
	}
	log.Info("assembled document", "pages", doc.Pages(), "bytes", doc.Len())
	return doc, nil
}

// enterPresentation focuses the slide area, switches the player to
// fullscreen, strips floating overlays and parks the pointer in a corner.
// Every step is best effort; only cancellation is returned.
func enterPresentation(ctx context.Context, s Surface, cfg config, log *slog.Logger) error {
	t := cfg.timings
	cx, cy := float64(cfg.viewportWidth)/2, float64(cfg.viewportHeight)/2

	steps := []struct {
		name  string
		do    func() error
		pause time.Duration
	}{
		{"focus", func() error { return s.MouseClick(ctx, cx, cy) }, t.Focus},
		{"fullscreen", func() error { return s.KeyPress(ctx, KeyFullscreen) }, t.Fullscreen},
		{"remove_overlays", func() error { return s.Evaluate(ctx, removeOverlaysScript) }, t.Sweep},
		{"park_pointer", func() error { return s.MouseMove(ctx, 0, 0) }, t.Sweep},
	}
	for _, st := range steps {
		if err := st.do(); err != nil {
			log.Warn("presentation step failed", "step", st.name, "error", err)
			cfg.metrics.miss(st.name)
		}
		if err := sleep(ctx, st.pause); err != nil {
			return err
		}
	}
	log.Info("entered presentation mode")
	return nil
}

// CaptureDeck starts a browser, runs a session for location and returns
// the assembled PDF. The browser is shown when debug is set.
func CaptureDeck(ctx context.Context, location, identity string, debug bool, opts ...Option) (*Result, error) {
	sess, err := NewSession(location, identity, debug)
	if err != nil {
		return nil, err
	}
	if debug {
		opts = append(opts[:len(opts):len(opts)], WithHeaded())
	}
	s, err := NewChromeSurface(opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return Run(ctx, sess, s, s.Assembler(), opts...)
}
