package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	deckpdf "github.com/porticus-lab/go-deck-pdf"
	"github.com/porticus-lab/go-deck-pdf/internal/config"
	"github.com/porticus-lab/go-deck-pdf/internal/store"
)

// captureFlags are the flags of the capture command, also accepted by the
// root command.
type captureFlags struct {
	output       string
	email        string
	debug        bool
	chrome       string
	noSandbox    bool
	autoDownload bool
	dpi          float64
	maxSlides    int
	clipSlide    bool
	metricsFile  string
	s3Region     string
	s3Endpoint   string
}

func (f *captureFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "output.pdf", "output PDF path, or s3://bucket/key")
	fs.StringVarP(&f.email, "email", "e", "", "email address for decks behind an email gate")
	fs.BoolVar(&f.debug, "debug", false, "show the browser and pause before capturing")
	fs.StringVar(&f.chrome, "chrome", "", "path to the Chrome or Chromium executable")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (needed as root in containers)")
	fs.BoolVar(&f.autoDownload, "auto-download", false, "download Chromium if no browser is found")
	fs.Float64Var(&f.dpi, "dpi", deckpdf.DefaultDPI, "resolution used to size PDF pages")
	fs.IntVar(&f.maxSlides, "max-slides", deckpdf.DefaultMaxSlides, "safety ceiling on captured slides")
	fs.BoolVar(&f.clipSlide, "clip-slide", false, "capture only the slide element instead of the viewport")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	fs.StringVar(&f.s3Region, "s3-region", "", "AWS region for s3:// outputs")
	fs.StringVar(&f.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint (MinIO and similar)")
}

// overrides returns only the flags the user actually set, so that config
// files and environment variables are not clobbered by flag defaults.
func (f *captureFlags) overrides(cmd *cobra.Command, g *globalFlags) *config.FlagOverrides {
	fs := cmd.Flags()
	o := &config.FlagOverrides{}
	if fs.Changed("email") {
		o.Email = &f.email
	}
	if fs.Changed("chrome") {
		o.ChromePath = &f.chrome
	}
	if fs.Changed("no-sandbox") {
		o.NoSandbox = &f.noSandbox
	}
	if fs.Changed("auto-download") {
		o.AutoDownload = &f.autoDownload
	}
	if fs.Changed("dpi") {
		o.DPI = &f.dpi
	}
	if fs.Changed("max-slides") {
		o.MaxSlides = &f.maxSlides
	}
	if fs.Changed("clip-slide") {
		o.ClipSlide = &f.clipSlide
	}
	if fs.Changed("metrics-file") {
		o.MetricsFile = &f.metricsFile
	}
	if fs.Changed("s3-region") {
		o.S3Region = &f.s3Region
	}
	if fs.Changed("s3-endpoint") {
		o.S3Endpoint = &f.s3Endpoint
	}
	if g.logFormat != "" {
		o.LogFormat = &g.logFormat
	}
	return o
}

func newCaptureCmd(g *globalFlags) *cobra.Command {
	f := &captureFlags{}
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Capture a presentation to PDF",
		Example: `  deckpdf capture https://pitch.com/v/deck -o deck.pdf
  deckpdf capture https://pitch.com/v/deck -e me@example.com -o s3://decks/q3.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, args[0], f, g)
		},
	}
	f.register(cmd)
	return cmd
}

func runCapture(cmd *cobra.Command, url string, f *captureFlags, g *globalFlags) error {
	cfg, err := config.Load(g.configPath, f.overrides(cmd, g))
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, g.verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	dest, err := store.Open(ctx, f.output, store.S3Options{Region: cfg.S3Region, Endpoint: cfg.S3Endpoint})
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := deckpdf.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
				logger.Warn("could not write metrics", "path", cfg.MetricsFile, "error", err)
			}
		}()
	}

	out := cmd.OutOrStdout()
	opts := append(cfg.Options(),
		deckpdf.WithLogger(logger),
		deckpdf.WithMetrics(metrics),
		deckpdf.WithProgress(func(fr deckpdf.Frame, est deckpdf.SlideCount) {
			fmt.Fprintln(out, progressLine(fr, est))
		}),
	)
	if f.debug {
		if in, ok := interactive(cmd.InOrStdin()); ok {
			opts = append(opts, deckpdf.WithPause(func() {
				fmt.Fprint(out, "Debug mode: press Enter to continue with capture...")
				waitForEnter(in)
			}))
		}
	}

	res, err := deckpdf.CaptureDeck(ctx, url, cfg.Email, f.debug, opts...)
	if errors.Is(err, deckpdf.ErrMissingIdentity) {
		return fmt.Errorf("%w; pass it with --email", err)
	}
	if err != nil {
		return err
	}

	if err := dest.Write(ctx, res.Bytes()); err != nil {
		return fmt.Errorf("saving %s: %w", dest, err)
	}
	fmt.Fprintf(out, "Saved %d slides to %s\n", res.Pages(), dest)
	return nil
}

func progressLine(f deckpdf.Frame, est deckpdf.SlideCount) string {
	if n, ok := est.Value(); ok {
		return fmt.Sprintf("Captured slide %d / %d", f.Index, n)
	}
	return fmt.Sprintf("Captured slide %d", f.Index)
}

// interactive returns r as a file when it is a terminal.
func interactive(r io.Reader) (*os.File, bool) {
	file, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return nil, false
	}
	return file, true
}

func waitForEnter(r io.Reader) {
	_, _ = bufio.NewReader(r).ReadString('\n')
}

// newLogger builds the stderr logger for format ("text" or "json").
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

