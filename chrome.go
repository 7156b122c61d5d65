package deckpdf

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// opTimeout bounds every single browser command issued by a surface.
const opTimeout = 15 * time.Second

// ChromeSurface is a [Surface] backed by one tab of a headless Chrome
// instance driven over the DevTools protocol.
//
// A ChromeSurface is a single stateful browsing session. It is not safe
// for concurrent use. Call [ChromeSurface.Close] to release the browser.
type ChromeSurface struct {
	cfg  config
	b    *browser
	tab  context.Context
	idle *netTracker
}

// NewChromeSurface starts a browser and prepares its first tab with the
// configured viewport. The caller must call [ChromeSurface.Close].
func NewChromeSurface(opts ...Option) (*ChromeSurface, error) {
	cfg := newConfig(opts)
	b, err := launch(cfg)
	if err != nil {
		return nil, err
	}

	c := &ChromeSurface{cfg: cfg, b: b, tab: b.browserCtx, idle: newNetTracker()}
	chromedp.ListenTarget(c.tab, c.idle.handle)

	if err := chromedp.Run(c.tab,
		network.Enable(),
		chromedp.EmulateViewport(cfg.viewportWidth, cfg.viewportHeight, chromedp.EmulateScale(cfg.scaleFactor)),
	); err != nil {
		b.close()
		return nil, fmt.Errorf("deckpdf: preparing tab: %w", err)
	}
	return c, nil
}

// Close releases the browser. Close is idempotent.
func (c *ChromeSurface) Close() error {
	c.b.close()
	return nil
}

// Assembler returns a [PrintAssembler] that prints in a new tab of this
// surface's browser. It becomes unusable once the surface is closed.
func (c *ChromeSurface) Assembler(opts ...Option) *PrintAssembler {
	cfg := c.cfg
	for _, o := range opts {
		o(&cfg)
	}
	return &PrintAssembler{cfg: cfg, b: c.b}
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (c *ChromeSurface) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := c.b.checkClosed(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(c.tab, timeout)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		runCtx, cancelDL = context.WithDeadline(runCtx, dl)
		defer cancelDL()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate implements [Surface].
func (c *ChromeSurface) Navigate(ctx context.Context, url string, waitIdle bool, timeout time.Duration) error {
	start := time.Now()
	if err := c.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return newCaptureError(CodeNavigation, "navigate", fmt.Errorf("%w: %s: %v", ErrNavigation, url, err))
	}
	if waitIdle {
		remaining := timeout - time.Since(start)
		if err := c.WaitForQuiescence(ctx, remaining); err != nil {
			c.cfg.logger.Debug("page loaded but network still busy", "url", url, "error", err)
		}
	}
	return nil
}

// Back implements [Surface].
func (c *ChromeSurface) Back(ctx context.Context) error {
	return c.run(ctx, c.cfg.timings.Navigate, chromedp.NavigateBack())
}

// Query implements [Surface].
func (c *ChromeSurface) Query(ctx context.Context, css string) (Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, opTimeout, chromedp.Nodes(css, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &chromeElement{c: c, node: nodes[0]}, nil
}

// QueryAll implements [Surface].
func (c *ChromeSurface) QueryAll(ctx context.Context, css string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, opTimeout, chromedp.Nodes(css, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	els := make([]Element, len(nodes))
	for i, n := range nodes {
		els[i] = &chromeElement{c: c, node: n}
	}
	return els, nil
}

// Text implements [Surface].
func (c *ChromeSurface) Text(ctx context.Context) (string, error) {
	var text string
	err := c.run(ctx, opTimeout, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	return text, err
}

// KeyPress implements [Surface].
func (c *ChromeSurface) KeyPress(ctx context.Context, key string) error {
	return c.run(ctx, opTimeout, chromedp.KeyEvent(keyString(key)))
}

// MouseClick implements [Surface].
func (c *ChromeSurface) MouseClick(ctx context.Context, x, y float64) error {
	return c.run(ctx, opTimeout, chromedp.MouseClickXY(x, y))
}

// MouseMove implements [Surface].
func (c *ChromeSurface) MouseMove(ctx context.Context, x, y float64) error {
	return c.run(ctx, opTimeout, chromedp.MouseEvent(input.MouseMoved, x, y))
}

// Screenshot implements [Surface].
func (c *ChromeSurface) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, opTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Evaluate implements [Surface].
func (c *ChromeSurface) Evaluate(ctx context.Context, script string) error {
	var raw []byte
	return c.run(ctx, opTimeout, chromedp.Evaluate(script, &raw))
}

// WaitForQuiescence implements [Surface].
func (c *ChromeSurface) WaitForQuiescence(ctx context.Context, timeout time.Duration) error {
	if err := c.b.checkClosed(); err != nil {
		return err
	}
	return c.idle.wait(ctx, timeout)
}

// keyString maps DOM key names to the sequences chromedp sends.
func keyString(key string) string {
	switch key {
	case "ArrowRight":
		return kb.ArrowRight
	case "ArrowLeft":
		return kb.ArrowLeft
	case "ArrowDown":
		return kb.ArrowDown
	case "ArrowUp":
		return kb.ArrowUp
	case "PageDown":
		return kb.PageDown
	case "Enter":
		return kb.Enter
	case "Escape":
		return kb.Escape
	}
	return key
}

// chromeElement is a DOM node of a ChromeSurface tab.
type chromeElement struct {
	c    *ChromeSurface
	node *cdp.Node
}

// elementState is what getBoundingClientRect and the computed style say
// about a node.
type elementState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible bool    `json:"visible"`
}

const stateFn = `function() {
	const r = this.getBoundingClientRect();
	const s = window.getComputedStyle(this);
	return {
		x: r.x, y: r.y, width: r.width, height: r.height,
		visible: r.width > 0 && r.height > 0 && s.visibility !== "hidden" && s.display !== "none",
	};
}`

// call runs fn with this bound to the node and decodes its result into out.
func (e *chromeElement) call(ctx context.Context, fn string, out any) error {
	return e.c.run(ctx, opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer runtime.ReleaseObject(obj.ObjectID).Do(ctx)

		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

func (e *chromeElement) state(ctx context.Context) (elementState, error) {
	var st elementState
	err := e.call(ctx, stateFn, &st)
	return st, err
}

func (e *chromeElement) Visible(ctx context.Context) bool {
	st, err := e.state(ctx)
	return err == nil && st.Visible
}

func (e *chromeElement) BoundingBox(ctx context.Context) (Box, bool) {
	st, err := e.state(ctx)
	if err != nil || !st.Visible {
		return Box{}, false
	}
	return Box{X: st.X, Y: st.Y, Width: st.Width, Height: st.Height}, true
}

func (e *chromeElement) InnerText(ctx context.Context) (string, error) {
	var text string
	err := e.call(ctx, `function() { return this.innerText || this.textContent || ""; }`, &text)
	return text, err
}

// Fill replaces the field's value and types text so that input listeners
// see the change.
func (e *chromeElement) Fill(ctx context.Context, text string) error {
	if err := e.call(ctx, `function() { this.focus(); if (this.select) this.select(); }`, nil); err != nil {
		return err
	}
	return e.c.run(ctx, opTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(text).Do(ctx)
	}))
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.c.run(ctx, opTimeout, chromedp.MouseClickNode(e.node))
}

func (e *chromeElement) Press(ctx context.Context, key string) error {
	return e.c.run(ctx, opTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return dom.Focus().WithNodeID(e.node.NodeID).Do(ctx)
		}),
		chromedp.KeyEvent(keyString(key)),
	)
}

func (e *chromeElement) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := e.c.run(ctx, opTimeout, chromedp.Screenshot([]cdp.NodeID{e.node.NodeID}, &buf, chromedp.ByNodeID)); err != nil {
		return nil, err
	}
	return buf, nil
}
