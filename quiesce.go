package deckpdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idleWindow is how long the network must stay silent to count as quiet.
const idleWindow = 500 * time.Millisecond

// netTracker counts in-flight requests from CDP network events.
type netTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	last     time.Time

	window time.Duration
	poll   time.Duration
	now    func() time.Time
}

func newNetTracker() *netTracker {
	return &netTracker{
		inflight: make(map[network.RequestID]struct{}),
		window:   idleWindow,
		poll:     50 * time.Millisecond,
		now:      time.Now,
	}
}

// handle is registered with chromedp.ListenTarget.
func (t *netTracker) handle(ev any) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.started(ev.RequestID)
	case *network.EventLoadingFinished:
		t.finished(ev.RequestID)
	case *network.EventLoadingFailed:
		t.finished(ev.RequestID)
	}
}

func (t *netTracker) started(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.last = t.now()
}

func (t *netTracker) finished(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.last = t.now()
}

// idle reports whether nothing is in flight and nothing happened recently.
func (t *netTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.last) >= t.window
}

func (t *netTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// wait blocks until the network is idle or timeout elapses.
func (t *netTracker) wait(ctx context.Context, timeout time.Duration) error {
	deadline := t.now().Add(timeout)
	for {
		if t.idle() {
			return nil
		}
		if !t.now().Before(deadline) {
			return fmt.Errorf("network not idle after %s (%d requests pending)", timeout, t.pending())
		}
		if err := sleep(ctx, t.poll); err != nil {
			return err
		}
	}
}
