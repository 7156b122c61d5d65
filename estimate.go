package deckpdf

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// SlideCount is an estimate of the deck size, possibly unknown.
type SlideCount struct {
	n int
}

// Unknown is the zero SlideCount.
var Unknown = SlideCount{}

// Known returns an estimate of n slides. Non-positive n yields Unknown.
func Known(n int) SlideCount {
	if n <= 0 {
		return Unknown
	}
	return SlideCount{n: n}
}

// Value returns the estimate and whether it is known.
func (c SlideCount) Value() (int, bool) {
	return c.n, c.n > 0
}

func (c SlideCount) String() string {
	if c.n <= 0 {
		return "unknown"
	}
	return strconv.Itoa(c.n)
}

var (
	counterElements = plain(
		`[data-testid="slide-count"]`,
		`[class*="slideCount"]`,
		`[class*="SlideCount"]`,
		`[class*="page-number"]`,
		`[class*="slide-number"]`,
	)

	navIndicators = `[class*="dot"], [class*="thumbnail"], [class*="Thumbnail"]`

	// "3 / 12", "3/12", "3 of 12", "Slide 3 | 12"
	counterPattern = regexp.MustCompile(`(\d+)\s*(?:/|\||of)\s*(\d+)`)
	// Page text is noisier, so only the slash form counts there.
	bodyPattern = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// ParseCounter extracts the total from a "current / total" indicator.
func ParseCounter(text string) (int, bool) {
	return secondNumber(counterPattern, text)
}

func secondNumber(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// EstimateSlideCount reads the deck size from s. It tries a slide counter
// element, then any "N / M" text on the page, then the number of
// navigation dots or thumbnails. It never fails; when nothing works the
// result is Unknown. The estimate is a hint, not a termination guarantee.
func EstimateSlideCount(ctx context.Context, s Surface, opts ...Option) SlideCount {
	cfg := newConfig(opts)
	log := cfg.logger

	steps := []struct {
		name string
		fn   func(context.Context, Surface) (int, error)
	}{
		{"counter", countFromCounter},
		{"page_text", countFromText},
		{"indicators", countFromIndicators},
	}
	for _, step := range steps {
		n, err := runEstimateStep(ctx, s, step.fn)
		if err != nil {
			log.Debug("slide count step failed", "step", step.name, "error", err)
			cfg.metrics.miss("estimate_" + step.name)
			continue
		}
		if n > 0 {
			log.Info("detected slide count", "slides", n, "source", step.name)
			return Known(n)
		}
	}
	log.Info("could not detect slide count; relying on duplicate detection")
	return Unknown
}

func runEstimateStep(ctx context.Context, s Surface, fn func(context.Context, Surface) (int, error)) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, s)
}

func countFromCounter(ctx context.Context, s Surface) (int, error) {
	for _, l := range counterElements {
		el, err := s.Query(ctx, l.CSS)
		if err != nil || el == nil {
			continue
		}
		text, err := el.InnerText(ctx)
		if err != nil {
			continue
		}
		if n, ok := ParseCounter(text); ok {
			return n, nil
		}
	}
	return 0, nil
}

func countFromText(ctx context.Context, s Surface) (int, error) {
	text, err := s.Text(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := secondNumber(bodyPattern, text)
	return n, nil
}

func countFromIndicators(ctx context.Context, s Surface) (int, error) {
	els, err := s.QueryAll(ctx, navIndicators)
	if err != nil {
		return 0, err
	}
	if len(els) > 1 {
		return len(els), nil
	}
	return 0, nil
}
