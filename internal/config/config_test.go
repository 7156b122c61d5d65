package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the default config location at an empty directory and
// clears DECKPDF_* variables for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range []string{
		"EMAIL", "CHROME", "LOG_FORMAT", "METRICS_FILE", "S3_REGION", "S3_ENDPOINT",
		"ADVANCE_KEY", "NO_SANDBOX", "AUTO_DOWNLOAD", "CLIP_SLIDE", "DPI", "MAX_SLIDES",
	} {
		t.Setenv(envPrefix+name, "")
	}
	return dir
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "deckpdf.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 150.0, cfg.DPI)
	assert.Equal(t, 200, cfg.MaxSlides)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, `
email = "viewer@example.com"
dpi = 300.0
max_slides = 40
no_sandbox = true

[timings]
transition = "750ms"
navigate = "2m"
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "viewer@example.com", cfg.Email)
	assert.Equal(t, 300.0, cfg.DPI)
	assert.Equal(t, 40, cfg.MaxSlides)
	assert.True(t, cfg.NoSandbox)
	assert.Equal(t, int64(1920), cfg.ViewportWidth, "unset keys keep defaults")
	assert.Equal(t, 750*time.Millisecond, cfg.Timings.Transition.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Timings.library().Navigate)
	assert.Zero(t, cfg.Timings.library().Poll)
}

func TestLoad_DefaultPath(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(DefaultPath()), 0o700))
	require.NoError(t, os.WriteFile(DefaultPath(), []byte("max_slides = 12\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxSlides)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.toml"), nil)
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "dpi = 100.0\nmax_slide = 3\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_slide")
}

func TestLoad_BadDuration(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "[timings]\npoll = \"soon\"\n")

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "dpi = 300.0\nlog_format = \"text\"\n")
	t.Setenv("DECKPDF_DPI", "96")
	t.Setenv("DECKPDF_LOG_FORMAT", "json")
	t.Setenv("DECKPDF_CLIP_SLIDE", "true")
	t.Setenv("DECKPDF_EMAIL", "env@example.com")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 96.0, cfg.DPI)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.ClipSlide)
	assert.Equal(t, "env@example.com", cfg.Email)
}

func TestLoad_BadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DECKPDF_MAX_SLIDES", "many")
	t.Setenv("DECKPDF_NO_SANDBOX", "perhaps")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DECKPDF_MAX_SLIDES")
	assert.Contains(t, err.Error(), "DECKPDF_NO_SANDBOX")
}

func TestLoad_FlagsWin(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "max_slides = 40\n")
	t.Setenv("DECKPDF_MAX_SLIDES", "50")

	n := 60
	email := "flag@example.com"
	cfg, err := Load(path, &FlagOverrides{MaxSlides: &n, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.MaxSlides)
	assert.Equal(t, "flag@example.com", cfg.Email)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dpi", func(c *Config) { c.DPI = 0 }},
		{"zero ceiling", func(c *Config) { c.MaxSlides = 0 }},
		{"empty viewport", func(c *Config) { c.ViewportHeight = 0 }},
		{"zero scale", func(c *Config) { c.ScaleFactor = 0 }},
		{"no advance key", func(c *Config) { c.AdvanceKey = "" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, Defaults().Validate())
}

func TestOptions(t *testing.T) {
	c := Defaults()
	assert.Len(t, c.Options(), 5)

	c.ChromePath = "/usr/bin/chromium"
	c.NoSandbox = true
	c.AutoDownload = true
	c.ClipSlide = true
	assert.Len(t, c.Options(), 9)
}
