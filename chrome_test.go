package deckpdf_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	deckpdf "github.com/porticus-lab/go-deck-pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func skipIfNoChrome(t *testing.T) {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
}

// isPDF checks whether data starts with the PDF magic number.
func isPDF(data []byte) bool {
	return len(data) > 4 && string(data[:5]) == "%PDF-"
}

func browserOptions() []deckpdf.Option {
	ms := time.Millisecond
	return []deckpdf.Option{
		deckpdf.WithNoSandbox(),
		deckpdf.WithViewport(800, 450, 1),
		deckpdf.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		deckpdf.WithTimings(deckpdf.Timings{
			Navigate:       30 * time.Second,
			Stabilize:      50 * ms,
			GateIdle:       time.Second,
			GateSettle:     10 * ms,
			OverlayWait:    10 * ms,
			PromoSettle:    10 * ms,
			Focus:          10 * ms,
			Fullscreen:     10 * ms,
			Sweep:          10 * ms,
			Transition:     100 * ms,
			TransitionIdle: 600 * ms,
			Poll:           10 * ms,
		}),
	}
}

// slidePNG renders a width x 150 slide striped in c. The stripes keep the
// image from being a single flat colour.
func slidePNG(t *testing.T, width int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < width; x++ {
			if (x/10)%2 == 0 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const testDeck = `<!DOCTYPE html>
<html><head><style>
  html, body { margin: 0; height: 100%; }
  #slide { width: 100%; height: 100%; }
</style></head>
<body>
  <div id="slide"></div>
  <div data-testid="slide-count" id="counter"></div>
  <script>
    const colors = ["#c0392b", "#27ae60", "#2980b9"];
    let i = 0;
    function render() {
      document.getElementById("slide").style.background = colors[i];
      document.getElementById("counter").textContent = (i + 1) + " / " + colors.length;
    }
    document.addEventListener("keydown", e => {
      if (e.key === "ArrowRight" && i < colors.length - 1) { i++; render(); }
    });
    render();
  </script>
</body></html>`

func TestCaptureDeck_LocalPresentation(t *testing.T) {
	skipIfNoChrome(t)

	path := filepath.Join(t.TempDir(), "deck.html")
	require.NoError(t, os.WriteFile(path, []byte(testDeck), 0o644))

	var captured []int
	opts := append(browserOptions(), deckpdf.WithProgress(func(f deckpdf.Frame, _ deckpdf.SlideCount) {
		captured = append(captured, f.Index)
	}))

	res, err := deckpdf.CaptureDeck(context.Background(), "file://"+path, "", false, opts...)
	require.NoError(t, err)
	assert.True(t, isPDF(res.Bytes()))
	assert.Equal(t, []int{1, 2, 3}, captured)

	info, err := res.Inspect()
	require.NoError(t, err)
	assert.Len(t, info.Pages, 3)
}

func TestPrintAssembler_PagesFollowFrameOrder(t *testing.T) {
	skipIfNoChrome(t)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := deckpdf.NewPrintAssembler(deckpdf.WithNoSandbox(), deckpdf.WithDPI(100), deckpdf.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	// Each slide has its own pixel width, so the embedded images tell the
	// pages apart.
	widths := []int{300, 280, 260, 240}
	colors := []color.Color{
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
		color.RGBA{B: 255, A: 255},
		color.White,
	}
	frames := make([]deckpdf.Frame, len(widths))
	for i, w := range widths {
		frames[i] = deckpdf.Frame{Index: i + 1, Data: slidePNG(t, w, colors[i])}
	}

	res, err := a.Assemble(context.Background(), frames)
	require.NoError(t, err)
	require.True(t, isPDF(res.Bytes()))
	assert.Equal(t, 4, res.Pages())

	info, err := res.Inspect()
	require.NoError(t, err)
	require.Len(t, info.Pages, 4)
	for i, p := range info.Pages {
		// The first slide, 300x150 px at 100 DPI, sets every page to 3x1.5 in.
		assert.InDelta(t, 216, p.Width, 1.5)
		assert.InDelta(t, 108, p.Height, 1.5)
		require.Len(t, p.Images, 1, "page %d", i+1)
		assert.Equal(t, widths[i], p.Images[0].Width, "page %d", i+1)
		assert.Equal(t, 150, p.Images[0].Height, "page %d", i+1)
	}

	assert.Contains(t, logs.String(), `"landscape":true`)
}

func TestChromeSurface_CloseIdempotent(t *testing.T) {
	skipIfNoChrome(t)

	s, err := deckpdf.NewChromeSurface(deckpdf.WithNoSandbox())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestChromeSurface_UsedAfterClose(t *testing.T) {
	skipIfNoChrome(t)

	s, err := deckpdf.NewChromeSurface(deckpdf.WithNoSandbox())
	require.NoError(t, err)
	s.Close()

	_, err = s.Screenshot(context.Background())
	assert.True(t, errors.Is(err, deckpdf.ErrClosed), "got %v", err)

	_, err = s.Assembler().Assemble(context.Background(), []deckpdf.Frame{{Index: 1, Data: []byte{1}}})
	assert.ErrorIs(t, err, deckpdf.ErrClosed)
}

func TestChromeSurface_NavigationFailure(t *testing.T) {
	skipIfNoChrome(t)

	s, err := deckpdf.NewChromeSurface(deckpdf.WithNoSandbox())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	err = s.Navigate(context.Background(), "http://127.0.0.1:1/", false, 10*time.Second)
	assert.ErrorIs(t, err, deckpdf.ErrNavigation)
}
