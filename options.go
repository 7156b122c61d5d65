package deckpdf

import (
	"log/slog"
	"time"
)

// Timings holds every bounded wait used while driving a presentation.
// Zero fields fall back to [DefaultTimings].
type Timings struct {
	// Navigate bounds the initial page load.
	Navigate time.Duration
	// Stabilize is the pause after gating, before slide counting.
	Stabilize time.Duration

	// GateIdle bounds the quiescence wait after the email is submitted.
	GateIdle time.Duration
	// GateSettle is the fixed pause after each gate step.
	GateSettle time.Duration
	// OverlayWait bounds the search for each optional overlay.
	OverlayWait time.Duration
	// PromoSettle is the pause after the promotional call to action,
	// before navigating back.
	PromoSettle time.Duration

	// Focus is the pause after clicking the slide area.
	Focus time.Duration
	// Fullscreen is the pause after entering presentation mode.
	Fullscreen time.Duration
	// Sweep is the pause after overlay removal and after parking the pointer.
	Sweep time.Duration

	// Transition is the fixed pause after each forward advance.
	Transition time.Duration
	// TransitionIdle bounds the quiescence wait after each advance.
	TransitionIdle time.Duration

	// Poll is the interval between overlay probes.
	Poll time.Duration
}

// DefaultTimings returns the waits that work for pitch.com decks.
func DefaultTimings() Timings {
	return Timings{
		Navigate:       60 * time.Second,
		Stabilize:      2 * time.Second,
		GateIdle:       10 * time.Second,
		GateSettle:     time.Second,
		OverlayWait:    5 * time.Second,
		PromoSettle:    2 * time.Second,
		Focus:          500 * time.Millisecond,
		Fullscreen:     2 * time.Second,
		Sweep:          300 * time.Millisecond,
		Transition:     500 * time.Millisecond,
		TransitionIdle: 3 * time.Second,
		Poll:           250 * time.Millisecond,
	}
}

// resolved returns t with zero fields replaced by defaults.
func (t Timings) resolved() Timings {
	d := DefaultTimings()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.Navigate, d.Navigate)
	fill(&t.Stabilize, d.Stabilize)
	fill(&t.GateIdle, d.GateIdle)
	fill(&t.GateSettle, d.GateSettle)
	fill(&t.OverlayWait, d.OverlayWait)
	fill(&t.PromoSettle, d.PromoSettle)
	fill(&t.Focus, d.Focus)
	fill(&t.Fullscreen, d.Fullscreen)
	fill(&t.Sweep, d.Sweep)
	fill(&t.Transition, d.Transition)
	fill(&t.TransitionIdle, d.TransitionIdle)
	fill(&t.Poll, d.Poll)
	return t
}

// DefaultMaxSlides is the safety ceiling on captured slides. It also caps
// an estimate that claims more slides.
const DefaultMaxSlides = 200

// DefaultDPI is the resolution at which frames are laid out on PDF pages.
const DefaultDPI = 150

// config holds internal configuration shared by every component.
type config struct {
	chromePath   string
	noSandbox    bool
	headless     string
	autoDownload bool

	viewportWidth  int64
	viewportHeight int64
	scaleFactor    float64

	dpi         float64
	maxSlides   int
	advanceKey  string
	clipToSlide bool

	timings Timings
	logger  *slog.Logger
	metrics *Metrics
	onFrame func(Frame, SlideCount)
	pause   func()
}

func defaultConfig() config {
	return config{
		headless:       "new",
		viewportWidth:  1920,
		viewportHeight: 1080,
		scaleFactor:    2,
		dpi:            DefaultDPI,
		maxSlides:      DefaultMaxSlides,
		advanceKey:     KeyArrowRight,
		timings:        DefaultTimings(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	cfg.timings = cfg.timings.resolved()
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// Option configures the surface, the capture steps and the assembler.
type Option func(*config)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithAutoDownload fetches a compatible Chromium build on first use when
// no explicit Chrome path is set.
func WithAutoDownload() Option {
	return func(c *config) {
		c.autoDownload = true
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// WithHeaded shows the browser window, for inspecting a deck by hand.
func WithHeaded() Option {
	return func(c *config) {
		c.headless = ""
	}
}

// WithViewport sets the browser viewport in CSS pixels and the device
// scale factor. Defaults to 1920x1080 at 2x.
func WithViewport(width, height int64, scale float64) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.viewportWidth, c.viewportHeight = width, height
		}
		if scale > 0 {
			c.scaleFactor = scale
		}
	}
}

// WithDPI sets the resolution used to size PDF pages from frame pixels.
// Defaults to 150.
func WithDPI(dpi float64) Option {
	return func(c *config) {
		if dpi > 0 {
			c.dpi = dpi
		}
	}
}

// WithMaxSlides sets the safety ceiling on captured slides. Defaults to 200.
func WithMaxSlides(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSlides = n
		}
	}
}

// WithAdvanceKey sets the key that moves the deck forward. Defaults to
// ArrowRight.
func WithAdvanceKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.advanceKey = key
		}
	}
}

// WithSlideClip captures only the slide element instead of the whole
// viewport when one can be found reliably.
func WithSlideClip() Option {
	return func(c *config) {
		c.clipToSlide = true
	}
}

// WithTimings overrides the bounded waits. Zero fields keep their defaults.
func WithTimings(t Timings) Option {
	return func(c *config) {
		c.timings = t
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMetrics records capture metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithProgress calls fn after every captured frame.
func WithProgress(fn func(Frame, SlideCount)) Option {
	return func(c *config) {
		c.onFrame = fn
	}
}

// WithPause calls fn once the deck is reachable and before anything is
// captured, so the page can be inspected in a headed browser.
func WithPause(fn func()) Option {
	return func(c *config) {
		c.pause = fn
	}
}
