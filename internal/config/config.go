// Package config resolves deckpdf settings.
// Priority: defaults < TOML file < DECKPDF_* env vars < flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	deckpdf "github.com/porticus-lab/go-deck-pdf"
)

// Config holds all resolved configuration values.
type Config struct {
	Email        string `toml:"email"`
	ChromePath   string `toml:"chrome_path"`
	NoSandbox    bool   `toml:"no_sandbox"`
	AutoDownload bool   `toml:"auto_download"`

	ViewportWidth  int64   `toml:"viewport_width"`
	ViewportHeight int64   `toml:"viewport_height"`
	ScaleFactor    float64 `toml:"scale_factor"`

	DPI        float64 `toml:"dpi"`
	MaxSlides  int     `toml:"max_slides"`
	AdvanceKey string  `toml:"advance_key"`
	ClipSlide  bool    `toml:"clip_slide"`

	LogFormat   string `toml:"log_format"`
	MetricsFile string `toml:"metrics_file"`

	S3Region   string `toml:"s3_region"`
	S3Endpoint string `toml:"s3_endpoint"`

	Timings Timings `toml:"timings"`
}

// Timings mirrors deckpdf.Timings with TOML duration strings such as
// "500ms". Unset entries keep the library defaults.
type Timings struct {
	Navigate       Duration `toml:"navigate"`
	Stabilize      Duration `toml:"stabilize"`
	GateIdle       Duration `toml:"gate_idle"`
	GateSettle     Duration `toml:"gate_settle"`
	OverlayWait    Duration `toml:"overlay_wait"`
	PromoSettle    Duration `toml:"promo_settle"`
	Focus          Duration `toml:"focus"`
	Fullscreen     Duration `toml:"fullscreen"`
	Sweep          Duration `toml:"sweep"`
	Transition     Duration `toml:"transition"`
	TransitionIdle Duration `toml:"transition_idle"`
	Poll           Duration `toml:"poll"`
}

// Duration decodes from a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// FlagOverrides holds values explicitly set via command-line flags.
// Nil pointer means the flag was not set (so lower-priority values are kept).
type FlagOverrides struct {
	Email        *string
	ChromePath   *string
	NoSandbox    *bool
	AutoDownload *bool
	DPI          *float64
	MaxSlides    *int
	ClipSlide    *bool
	LogFormat    *string
	MetricsFile  *string
	S3Region     *string
	S3Endpoint   *string
}

// Defaults returns the base configuration.
func Defaults() Config {
	return Config{
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		ScaleFactor:    2,
		DPI:            deckpdf.DefaultDPI,
		MaxSlides:      deckpdf.DefaultMaxSlides,
		AdvanceKey:     deckpdf.KeyArrowRight,
		LogFormat:      "text",
	}
}

// DefaultPath is where Load looks for a config file when none is named:
// deckpdf/config.toml under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "deckpdf", "config.toml")
}

// Load builds the final configuration. An explicitly named file must exist;
// a missing file at DefaultPath is fine.
func Load(path string, flags *FlagOverrides) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config file: %w", err)
			}
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadFile decodes path over cfg. Keys absent from the file keep their
// current values; unknown keys are an error so typos do not go unnoticed.
func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// envPrefix namespaces every environment override.
const envPrefix = "DECKPDF_"

func loadEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("EMAIL", &cfg.Email)
	str("CHROME", &cfg.ChromePath)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("METRICS_FILE", &cfg.MetricsFile)
	str("S3_REGION", &cfg.S3Region)
	str("S3_ENDPOINT", &cfg.S3Endpoint)
	str("ADVANCE_KEY", &cfg.AdvanceKey)

	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	boolean("NO_SANDBOX", &cfg.NoSandbox)
	boolean("AUTO_DOWNLOAD", &cfg.AutoDownload)
	boolean("CLIP_SLIDE", &cfg.ClipSlide)

	if v, ok := os.LookupEnv(envPrefix + "DPI"); ok && v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDPI: %w", envPrefix, err))
		} else {
			cfg.DPI = dpi
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_SLIDES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_SLIDES: %w", envPrefix, err))
		} else {
			cfg.MaxSlides = n
		}
	}
	return errors.Join(errs...)
}

// applyFlags applies command-line flag overrides (highest priority).
func applyFlags(cfg *Config, f *FlagOverrides) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Email, f.Email)
	set(&cfg.ChromePath, f.ChromePath)
	set(&cfg.LogFormat, f.LogFormat)
	set(&cfg.MetricsFile, f.MetricsFile)
	set(&cfg.S3Region, f.S3Region)
	set(&cfg.S3Endpoint, f.S3Endpoint)

	if f.NoSandbox != nil {
		cfg.NoSandbox = *f.NoSandbox
	}
	if f.AutoDownload != nil {
		cfg.AutoDownload = *f.AutoDownload
	}
	if f.ClipSlide != nil {
		cfg.ClipSlide = *f.ClipSlide
	}
	if f.DPI != nil {
		cfg.DPI = *f.DPI
	}
	if f.MaxSlides != nil {
		cfg.MaxSlides = *f.MaxSlides
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c Config) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", c.DPI)
	}
	if c.MaxSlides < 1 {
		return fmt.Errorf("max_slides must be at least 1, got %d", c.MaxSlides)
	}
	if c.ViewportWidth < 1 || c.ViewportHeight < 1 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("scale_factor must be positive, got %v", c.ScaleFactor)
	}
	if c.AdvanceKey == "" {
		return fmt.Errorf("advance_key must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Options translates c into library options.
func (c Config) Options() []deckpdf.Option {
	opts := []deckpdf.Option{
		deckpdf.WithViewport(c.ViewportWidth, c.ViewportHeight, c.ScaleFactor),
		deckpdf.WithDPI(c.DPI),
		deckpdf.WithMaxSlides(c.MaxSlides),
		deckpdf.WithAdvanceKey(c.AdvanceKey),
		deckpdf.WithTimings(c.Timings.library()),
	}
	if c.ChromePath != "" {
		opts = append(opts, deckpdf.WithChromePath(c.ChromePath))
	}
	if c.NoSandbox {
		opts = append(opts, deckpdf.WithNoSandbox())
	}
	if c.AutoDownload {
		opts = append(opts, deckpdf.WithAutoDownload())
	}
	if c.ClipSlide {
		opts = append(opts, deckpdf.WithSlideClip())
	}
	return opts
}

func (t Timings) library() deckpdf.Timings {
	return deckpdf.Timings{
		Navigate:       t.Navigate.Duration,
		Stabilize:      t.Stabilize.Duration,
		GateIdle:       t.GateIdle.Duration,
		GateSettle:     t.GateSettle.Duration,
		OverlayWait:    t.OverlayWait.Duration,
		PromoSettle:    t.PromoSettle.Duration,
		Focus:          t.Focus.Duration,
		Fullscreen:     t.Fullscreen.Duration,
		Sweep:          t.Sweep.Duration,
		Transition:     t.Transition.Duration,
		TransitionIdle: t.TransitionIdle.Duration,
		Poll:           t.Poll.Duration,
	}
}
