package deckpdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// fakeSurface is an in-memory Surface. It shows screens[pos] and moves to
// the next screen on every advance key press, staying on the last one.
type fakeSurface struct {
	mu sync.Mutex

	screens    [][]byte
	pos        int
	advanceKey string

	elements map[string][]*fakeElement
	text     string
	textErr  error
	queryErr map[string]error
	panicOn  string

	navErr  error
	shotErr error
	onShot  func()

	navigated  []string
	keys       []string
	clicks     [][2]float64
	moves      [][2]float64
	scripts    []string
	quiesce    int
	backs      int
	shots      int
	advanceHit int
}

func newFakeSurface(screens ...string) *fakeSurface {
	f := &fakeSurface{advanceKey: KeyArrowRight, elements: map[string][]*fakeElement{}}
	for _, s := range screens {
		f.screens = append(f.screens, []byte(s))
	}
	return f
}

func (f *fakeSurface) add(css string, el *fakeElement) *fakeElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	el.s = f
	f.elements[css] = append(f.elements[css], el)
	return el
}

func (f *fakeSurface) current() []byte {
	if len(f.screens) == 0 {
		return nil
	}
	return f.screens[f.pos]
}

func (f *fakeSurface) Navigate(_ context.Context, url string, _ bool, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeSurface) Back(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backs++
	return nil
}

func (f *fakeSurface) Query(_ context.Context, css string) (Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if css == f.panicOn {
		panic("query " + css)
	}
	if err := f.queryErr[css]; err != nil {
		return nil, err
	}
	els := f.elements[css]
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

func (f *fakeSurface) QueryAll(_ context.Context, css string) ([]Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if css == f.panicOn {
		panic("query " + css)
	}
	if err := f.queryErr[css]; err != nil {
		return nil, err
	}
	out := make([]Element, len(f.elements[css]))
	for i, el := range f.elements[css] {
		out[i] = el
	}
	return out, nil
}

func (f *fakeSurface) Text(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "text" {
		panic("text")
	}
	return f.text, f.textErr
}

func (f *fakeSurface) KeyPress(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if key == f.advanceKey {
		f.advanceHit++
		if f.pos < len(f.screens)-1 {
			f.pos++
		}
	}
	return nil
}

func (f *fakeSurface) MouseClick(_ context.Context, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, [2]float64{x, y})
	return nil
}

func (f *fakeSurface) MouseMove(_ context.Context, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, [2]float64{x, y})
	return nil
}

func (f *fakeSurface) Screenshot(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shots++
	if f.onShot != nil {
		f.onShot()
	}
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return f.current(), nil
}

func (f *fakeSurface) Evaluate(_ context.Context, script string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, script)
	return nil
}

func (f *fakeSurface) WaitForQuiescence(context.Context, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quiesce++
	return errors.New("network not idle")
}

// fakeElement is one node of a fakeSurface.
type fakeElement struct {
	s *fakeSurface

	text      string
	hidden    bool
	box       Box
	clickErr  error
	shotErr   error
	shotLabel string

	filled  string
	clicked int
	pressed []string
}

func (e *fakeElement) Visible(context.Context) bool { return !e.hidden }

func (e *fakeElement) BoundingBox(context.Context) (Box, bool) {
	return e.box, !e.hidden
}

func (e *fakeElement) InnerText(context.Context) (string, error) {
	return e.text, nil
}

func (e *fakeElement) Fill(_ context.Context, text string) error {
	e.filled = text
	return nil
}

func (e *fakeElement) Click(context.Context) error {
	e.clicked++
	return e.clickErr
}

func (e *fakeElement) Press(_ context.Context, key string) error {
	e.pressed = append(e.pressed, key)
	return nil
}

func (e *fakeElement) Screenshot(context.Context) ([]byte, error) {
	if e.shotErr != nil {
		return nil, e.shotErr
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return append([]byte(e.shotLabel), e.s.current()...), nil
}

// fastTimings keeps every wait to a nanosecond so tests run instantly.
func fastTimings() Timings {
	d := time.Nanosecond
	return Timings{
		Navigate:       time.Second,
		Stabilize:      d,
		GateIdle:       d,
		GateSettle:     d,
		OverlayWait:    d,
		PromoSettle:    d,
		Focus:          d,
		Fullscreen:     d,
		Sweep:          d,
		Transition:     d,
		TransitionIdle: d,
		Poll:           d,
	}
}

func testOptions(extra ...Option) []Option {
	opts := []Option{WithTimings(fastTimings()), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return append(opts, extra...)
}
