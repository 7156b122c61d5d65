package deckpdf

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Locator selects elements by CSS and, optionally, by the text they show.
// Text is a case-insensitive substring match on the element's innerText,
// which covers buttons that differ only by their label.
type Locator struct {
	CSS  string
	Text string
}

// String renders the locator the way it appears in logs.
func (l Locator) String() string {
	if l.Text == "" {
		return l.CSS
	}
	return l.CSS + ` (text "` + l.Text + `")`
}

// Locators is a ranked list. Earlier entries win.
type Locators []Locator

// textual returns one locator per css, all filtered by text.
func textual(text string, css ...string) Locators {
	out := make(Locators, len(css))
	for i, c := range css {
		out[i] = Locator{CSS: c, Text: text}
	}
	return out
}

// plain returns one unfiltered locator per css.
func plain(css ...string) Locators {
	out := make(Locators, len(css))
	for i, c := range css {
		out[i] = Locator{CSS: c}
	}
	return out
}

// firstVisible probes locs in order and returns the first visible match.
// Lookup errors are logged and treated as a miss for that locator only.
func (locs Locators) firstVisible(ctx context.Context, s Surface, log *slog.Logger) (Element, Locator, bool) {
	for _, l := range locs {
		el, err := l.find(ctx, s)
		if err != nil {
			log.Debug("probe failed", "selector", l.String(), "error", err)
			continue
		}
		if el != nil {
			return el, l, true
		}
	}
	return nil, Locator{}, false
}

// waitVisible polls firstVisible until a match appears or timeout elapses.
func (locs Locators) waitVisible(ctx context.Context, s Surface, log *slog.Logger, timeout, poll time.Duration) (Element, Locator, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if el, l, ok := locs.firstVisible(ctx, s, log); ok {
			return el, l, true
		}
		if time.Now().After(deadline) {
			return nil, Locator{}, false
		}
		if err := sleep(ctx, poll); err != nil {
			return nil, Locator{}, false
		}
	}
}

// find returns the first visible element matching l, or nil.
func (l Locator) find(ctx context.Context, s Surface) (Element, error) {
	if l.Text == "" {
		el, err := s.Query(ctx, l.CSS)
		if err != nil || el == nil {
			return nil, err
		}
		if !el.Visible(ctx) {
			return nil, nil
		}
		return el, nil
	}

	els, err := s.QueryAll(ctx, l.CSS)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(l.Text)
	for _, el := range els {
		text, err := el.InnerText(ctx)
		if err != nil || !strings.Contains(strings.ToLower(text), want) {
			continue
		}
		if el.Visible(ctx) {
			return el, nil
		}
	}
	return nil, nil
}
