package deckpdf

import (
	"context"
	"log/slog"
)

// GateState tracks progress through an email gate.
type GateState int

const (
	// Ungated means no email prompt was found.
	Ungated GateState = iota
	// AwaitingIdentity means an email prompt is showing.
	AwaitingIdentity
	// AwaitingConfirmationOverlay means the email was submitted and the
	// follow-up dialogs are being dismissed.
	AwaitingConfirmationOverlay
	// Cleared means the deck is reachable.
	Cleared
)

func (s GateState) String() string {
	switch s {
	case Ungated:
		return "ungated"
	case AwaitingIdentity:
		return "awaiting_identity"
	case AwaitingConfirmationOverlay:
		return "awaiting_confirmation_overlay"
	case Cleared:
		return "cleared"
	}
	return "unknown"
}

var (
	identityInputs = plain(
		`input[type="email"]`,
		`[data-testid*="email"]`,
		`input[name*="email"]`,
		`input[placeholder*="email" i]`,
	)

	submitControls = append(plain(`button[type="submit"]`),
		Locator{CSS: "button", Text: "Submit"},
		Locator{CSS: "button", Text: "Enter"},
		Locator{CSS: "button", Text: "View"},
	)

	sharingConsent = textual("Agree", "button", `[role="button"]`)

	// The promotional dialog's close button does nothing, so it is dismissed
	// through its call to action followed by a history back.
	promoAction = textual("Create a presentation", "a", `[role="link"]`, "button", `[role="button"]`)
)

// ResolveGate clears an email gate on s, if there is one. It returns
// Ungated when no prompt is visible and Cleared once the email has been
// submitted and the follow-up dialogs handled. The only failure is
// ErrMissingIdentity, returned before anything is typed or clicked.
//
// Dismissing the optional dialogs is best effort: misses are logged and
// the gate still counts as cleared.
func ResolveGate(ctx context.Context, s Surface, identity string, opts ...Option) (GateState, error) {
	cfg := newConfig(opts)
	g := gate{s: s, cfg: cfg, log: cfg.logger}
	st, err := g.resolve(ctx, identity)
	cfg.metrics.gate(st)
	return st, err
}

type gate struct {
	s   Surface
	cfg config
	log *slog.Logger
}

func (g *gate) resolve(ctx context.Context, identity string) (GateState, error) {
	input, loc, ok := identityInputs.firstVisible(ctx, g.s, g.log)
	if !ok {
		g.log.Debug("no email prompt")
		return Ungated, nil
	}
	if identity == "" {
		return AwaitingIdentity, newCaptureError(CodeMissingIdentity, "resolve gate", ErrMissingIdentity)
	}

	g.log.Info("email prompt detected, entering email", "selector", loc.String())
	if err := input.Fill(ctx, identity); err != nil {
		g.log.Warn("filling email failed", "error", err)
	}
	g.submit(ctx, input)

	t := g.cfg.timings
	if err := g.s.WaitForQuiescence(ctx, t.GateIdle); err != nil {
		g.log.Debug("network did not settle after email, continuing", "error", err)
	}
	if err := sleep(ctx, t.GateSettle); err != nil {
		return AwaitingConfirmationOverlay, err
	}
	g.log.Info("email submitted")

	for _, step := range []struct {
		name string
		fn   func(context.Context) bool
	}{
		{"sharing_consent", g.acceptSharing},
		{"promo_dialog", g.dismissPromo},
	} {
		if !g.contain(ctx, step.name, step.fn) {
			g.cfg.metrics.miss(step.name)
		}
		if ctx.Err() != nil {
			return AwaitingConfirmationOverlay, ctx.Err()
		}
	}
	return Cleared, nil
}

// submit clicks the submit controls in rank order until one click succeeds,
// falling back to Enter in the email field.
func (g *gate) submit(ctx context.Context, input Element) {
	for _, loc := range submitControls {
		btn, err := loc.find(ctx, g.s)
		if err != nil {
			g.log.Debug("probe failed", "selector", loc.String(), "error", err)
			continue
		}
		if btn == nil {
			continue
		}
		if err := btn.Click(ctx); err != nil {
			g.log.Debug("submit click failed", "selector", loc.String(), "error", err)
			continue
		}
		g.log.Debug("email form submitted", "selector", loc.String())
		return
	}
	if err := input.Press(ctx, KeyEnter); err != nil {
		g.log.Warn("submitting email with Enter failed", "error", err)
	}
}

// contain runs one optional step, turning a panic from the surface into a
// logged miss.
func (g *gate) contain(ctx context.Context, name string, fn func(context.Context) bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Warn("optional step panicked", "step", name, "panic", r)
			ok = false
		}
	}()
	return fn(ctx)
}

func (g *gate) acceptSharing(ctx context.Context) bool {
	t := g.cfg.timings
	btn, _, ok := sharingConsent.waitVisible(ctx, g.s, g.log, t.OverlayWait, t.Poll)
	if !ok {
		g.log.Debug("no sharing dialog")
		return false
	}
	if err := btn.Click(ctx); err != nil {
		g.log.Warn("could not accept sharing dialog", "error", err)
		return false
	}
	g.log.Info("accepted sharing dialog")
	_ = sleep(ctx, t.GateSettle)
	return true
}

func (g *gate) dismissPromo(ctx context.Context) bool {
	t := g.cfg.timings
	btn, _, ok := promoAction.waitVisible(ctx, g.s, g.log, t.OverlayWait, t.Poll)
	if !ok {
		g.log.Debug("no promotional dialog")
		return false
	}
	g.log.Info("dismissing promotional dialog")
	if err := btn.Click(ctx); err != nil {
		g.log.Warn("could not dismiss promotional dialog", "error", err)
		return false
	}
	if err := sleep(ctx, t.PromoSettle); err != nil {
		return false
	}
	if err := g.s.Back(ctx); err != nil {
		g.log.Warn("could not navigate back after promotional dialog", "error", err)
		return false
	}
	if err := g.s.WaitForQuiescence(ctx, t.GateIdle); err != nil {
		g.log.Debug("network did not settle after navigating back", "error", err)
	}
	_ = sleep(ctx, t.GateSettle)
	g.log.Info("dismissed promotional dialog")
	return true
}
