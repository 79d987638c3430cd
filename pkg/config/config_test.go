package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"INPUT_URL_BASE", "INPUT_URL_PREVIEW", "INPUT_DURATION_SECONDS",
	"INPUT_VIEWPORT_WIDTH", "INPUT_VIEWPORT_HEIGHT", "INPUT_STEPS_JSON_PATH",
	"INPUT_OUTPUT_FORMAT", "INPUT_GIF_FPS", "INPUT_GIF_WIDTH", "INPUT_THUMBNAIL_WIDTH",
	"INPUT_POST_COMMENT", "INPUT_LANG", "INPUT_OUTPUT_DIR", "INPUT_PARALLEL_CAPTURE",
	"INPUT_HEADLESS", "INPUT_SKIP_BROWSER_INSTALL", "INPUT_LOG_LEVEL", "INPUT_METRICS",
	"GITHUB_WORKSPACE", "GITHUB_OUTPUT", "GITHUB_STEP_SUMMARY", "GITHUB_SERVER_URL",
	"GITHUB_REPOSITORY", "GITHUB_RUN_ID", "GITHUB_EVENT_NAME", "GITHUB_EVENT_PATH",
	"GITHUB_TOKEN",
}

// cleanEnv blanks every variable the config reads so the host runner's
// environment does not leak into a test. Blank values take the defaults.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedVars {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.DurationSeconds)
	assert.Equal(t, 8*time.Second, cfg.Duration())
	assert.Equal(t, 1280, cfg.ViewportWidth)
	assert.Equal(t, 720, cfg.ViewportHeight)
	assert.Equal(t, FormatBoth, cfg.OutputFormat)
	assert.Equal(t, 12, cfg.GIFFPS)
	assert.Equal(t, 900, cfg.GIFWidth)
	assert.Equal(t, 800, cfg.ThumbnailWidth)
	assert.True(t, cfg.PostComment)
	assert.Equal(t, "en", cfg.Lang)
	assert.True(t, cfg.Headless)
	assert.False(t, cfg.ParallelCapture)
	assert.True(t, cfg.Metrics)
	assert.Equal(t, "normal", cfg.LogLevel)
	assert.Equal(t, "/github/workspace/pr-video-diff", cfg.OutputPath())
	assert.Equal(t, "https://github.com", cfg.GitHub.ServerURL)
}

func TestLoad_Environment(t *testing.T) {
	cleanEnv(t)
	t.Setenv("INPUT_URL_BASE", "https://example.com")
	t.Setenv("INPUT_URL_PREVIEW", "https://pr-7.example.com")
	t.Setenv("INPUT_DURATION_SECONDS", "12")
	t.Setenv("INPUT_OUTPUT_FORMAT", "mp4")
	t.Setenv("INPUT_POST_COMMENT", "false")
	t.Setenv("INPUT_LANG", "es")
	t.Setenv("GITHUB_WORKSPACE", "/home/runner/work/site")
	t.Setenv("GITHUB_REPOSITORY", "acme/site")
	t.Setenv("GITHUB_RUN_ID", "991")
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://example.com", cfg.BaseURL)
	assert.Equal(t, "https://pr-7.example.com", cfg.PreviewURL)
	assert.Equal(t, 12*time.Second, cfg.Duration())
	assert.False(t, cfg.OutputFormat.WantsGIF())
	assert.False(t, cfg.PostComment)
	assert.Equal(t, "es", cfg.Lang)
	assert.Equal(t, "/home/runner/work/site/pr-video-diff", cfg.OutputPath())
	assert.True(t, cfg.GitHub.IsPullRequest())
	assert.Equal(t, "https://github.com/acme/site/actions/runs/991", cfg.GitHub.RunURL())
}

func TestLoad_BadEnvironmentValue(t *testing.T) {
	cleanEnv(t)
	t.Setenv("INPUT_DURATION_SECONDS", "eight")

	_, err := Load("")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_FileOverlay(t *testing.T) {
	cleanEnv(t)
	t.Setenv("INPUT_URL_BASE", "https://example.com")
	t.Setenv("INPUT_GIF_FPS", "20")

	path := filepath.Join(t.TempDir(), "pr-video-diff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url_preview: https://preview.example.com
viewport_width: 390
viewport_height: 844
output_format: gif
output_dir: /tmp/artifacts
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://example.com", cfg.BaseURL, "env value kept when the file omits it")
	assert.Equal(t, "https://preview.example.com", cfg.PreviewURL)
	assert.Equal(t, 390, cfg.ViewportWidth)
	assert.Equal(t, 844, cfg.ViewportHeight)
	assert.Equal(t, 20, cfg.GIFFPS)
	assert.True(t, cfg.OutputFormat.WantsGIF())
	assert.Equal(t, "/tmp/artifacts", cfg.OutputPath())
}

func TestLoad_FileErrors(t *testing.T) {
	cleanEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewport_width: [1, 2\n"), 0600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func validConfig() *Config {
	return &Config{
		BaseURL:         "https://example.com",
		PreviewURL:      "https://preview.example.com",
		DurationSeconds: 8,
		ViewportWidth:   1280,
		ViewportHeight:  720,
		OutputFormat:    FormatBoth,
		GIFFPS:          12,
		GIFWidth:        900,
		ThumbnailWidth:  800,
		Lang:            "en",
		Workspace:       "/github/workspace",
		LogLevel:        "normal",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantInput string
		wantErr   string
	}{
		{"valid", func(c *Config) {}, "", ""},
		{"zero duration is allowed", func(c *Config) { c.DurationSeconds = 0 }, "", ""},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "INPUT_URL_BASE", "is required"},
		{"blank preview url", func(c *Config) { c.PreviewURL = "  " }, "INPUT_URL_PREVIEW", "is required"},
		{"relative url", func(c *Config) { c.PreviewURL = "preview.example.com" }, "INPUT_URL_PREVIEW", "not an absolute URL"},
		{"negative duration", func(c *Config) { c.DurationSeconds = -1 }, "INPUT_DURATION_SECONDS", "negative"},
		{"zero viewport", func(c *Config) { c.ViewportHeight = 0 }, "INPUT_VIEWPORT_HEIGHT", "positive"},
		{"unknown format", func(c *Config) { c.OutputFormat = "webm" }, "INPUT_OUTPUT_FORMAT", "must be 'mp4', 'gif' or 'both'"},
		{"zero fps", func(c *Config) { c.GIFFPS = 0 }, "INPUT_GIF_FPS", "positive"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "INPUT_LOG_LEVEL", "chatty"},
		{"no workspace", func(c *Config) { c.Workspace = "" }, "GITHUB_WORKSPACE", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantInput, cfgErr.Input)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = ""
	cfg.Lang = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "normal", cfg.LogLevel)
	assert.Equal(t, "en", cfg.Lang)
}

func TestOutputFormat_WantsGIF(t *testing.T) {
	assert.False(t, FormatMP4.WantsGIF())
	assert.True(t, FormatGIF.WantsGIF())
	assert.True(t, FormatBoth.WantsGIF())
}

func TestGitHub_RunURL(t *testing.T) {
	assert.Empty(t, GitHub{}.RunURL())
	assert.Equal(t, "https://ghe.example.com/o/r/actions/runs/5",
		GitHub{ServerURL: "https://ghe.example.com/", Repository: "o/r", RunID: "5"}.RunURL())
}
