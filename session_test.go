package deckpdf

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssembler records the frames it is given.
type fakeAssembler struct {
	frames []Frame
	calls  int
	err    error
}

func (a *fakeAssembler) Assemble(_ context.Context, frames []Frame) (*Result, error) {
	a.calls++
	a.frames = frames
	if a.err != nil {
		return nil, a.err
	}
	return NewResult([]byte("%PDF-1.4"), len(frames)), nil
}

func newTestSession(t *testing.T, identity string) Session {
	t.Helper()
	sess, err := NewSession("https://pitch.com/v/quarterly-review", identity, false)
	require.NoError(t, err)
	return sess
}

func TestRun_CounterDrivenDeck(t *testing.T) {
	s := newFakeSurface("S1", "S2", "S3", "S4")
	s.add(`[data-testid="slide-count"]`, &fakeElement{text: "1 / 3"})
	asm := &fakeAssembler{}

	res, err := Run(context.Background(), newTestSession(t, ""), s, asm, testOptions()...)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Pages())
	require.Len(t, asm.frames, 3)
	for i, f := range asm.frames {
		assert.Equal(t, fmt.Sprintf("S%d", i+1), string(f.Data))
	}
	assert.Equal(t, []string{"https://pitch.com/v/quarterly-review"}, s.navigated)
}

func TestRun_DuplicateTerminatedDeck(t *testing.T) {
	s := newFakeSurface("S1", "S2")
	asm := &fakeAssembler{}

	res, err := Run(context.Background(), newTestSession(t, ""), s, asm, testOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages())
	// Two advances after frames plus the single re-check.
	assert.Equal(t, 3, s.advanceHit)
}

func TestRun_EntersPresentationMode(t *testing.T) {
	s := newFakeSurface("S1")
	asm := &fakeAssembler{}

	_, err := Run(context.Background(), newTestSession(t, ""), s, asm, testOptions()...)
	require.NoError(t, err)

	assert.Equal(t, [][2]float64{{960, 540}}, s.clicks, "focus click at the viewport centre")
	require.NotEmpty(t, s.keys)
	assert.Equal(t, KeyFullscreen, s.keys[0])
	assert.Equal(t, []string{removeOverlaysScript}, s.scripts)
	assert.Equal(t, [][2]float64{{0, 0}}, s.moves)
}

func TestRun_GatedDeck(t *testing.T) {
	s := newFakeSurface("S1", "S2")
	input := s.add(`input[type="email"]`, &fakeElement{})

	res, err := Run(context.Background(), newTestSession(t, "viewer@example.com"), s, &fakeAssembler{}, testOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages())
	assert.Equal(t, "viewer@example.com", input.filled)
}

func TestRun_MissingIdentity(t *testing.T) {
	s := newFakeSurface("S1")
	s.add(`input[type="email"]`, &fakeElement{})
	asm := &fakeAssembler{}

	res, err := Run(context.Background(), newTestSession(t, "  "), s, asm, testOptions()...)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Zero(t, s.shots)
	assert.Zero(t, asm.calls)
}

func TestRun_NavigationFailure(t *testing.T) {
	s := newFakeSurface("S1")
	s.navErr = newCaptureError(CodeNavigation, "navigate", ErrNavigation)
	asm := &fakeAssembler{}

	_, err := Run(context.Background(), newTestSession(t, ""), s, asm, testOptions()...)
	assert.ErrorIs(t, err, ErrNavigation)
	assert.Zero(t, s.shots)
	assert.Zero(t, asm.calls)
}

func TestRun_AssemblerFailure(t *testing.T) {
	s := newFakeSurface("S1")
	asm := &fakeAssembler{err: errors.New("disk full")}

	_, err := Run(context.Background(), newTestSession(t, ""), s, asm, testOptions()...)
	assert.ErrorContains(t, err, "disk full")
}

func TestRun_PausesBeforeCapture(t *testing.T) {
	s := newFakeSurface("S1")
	shotsAtPause := -1
	pause := WithPause(func() { shotsAtPause = s.shots })

	_, err := Run(context.Background(), newTestSession(t, ""), s, &fakeAssembler{}, testOptions(pause)...)
	require.NoError(t, err)
	assert.Zero(t, shotsAtPause)
}

func TestNewSession(t *testing.T) {
	a, err := NewSession("https://pitch.com/v/deck", " me@example.com ", true)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", a.Identity)
	assert.True(t, a.Debug)
	assert.Len(t, a.ID, 26)

	b, err := NewSession("https://pitch.com/v/deck", "", false)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = NewSession("not a url", "", false)
	assert.Error(t, err)
}

func TestIsPitchURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://pitch.com/v/deck-abc", true},
		{"https://app.pitch.com/app/presentation/1", true},
		{"https://PITCH.com/v/x", true},
		{"https://notpitch.com/v/x", false},
		{"https://pitch.com.evil.example/v/x", false},
		{"file:///tmp/deck.html", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPitchURL(tt.url), tt.url)
	}
}
