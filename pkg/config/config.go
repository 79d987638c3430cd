// Package config loads the run configuration from the action inputs
// (INPUT_* variables), the GitHub runner environment (GITHUB_*), and an
// optional YAML file layered on top.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects which artifacts are produced besides the thumbnail.
type OutputFormat string

const (
	// FormatMP4 produces only the composed video
	FormatMP4 OutputFormat = "mp4"
	// FormatGIF adds the animated image; the video is still produced
	FormatGIF OutputFormat = "gif"
	// FormatBoth produces video and animated image
	FormatBoth OutputFormat = "both"
)

// WantsGIF reports whether the animated image should be derived.
func (f OutputFormat) WantsGIF() bool {
	return f == FormatGIF || f == FormatBoth
}

// OutputDirName is the directory created under the workspace for artifacts.
const OutputDirName = "pr-video-diff"

// Config is the immutable parameter bundle for one run.
type Config struct {
	BaseURL    string `env:"INPUT_URL_BASE" yaml:"url_base"`
	PreviewURL string `env:"INPUT_URL_PREVIEW" yaml:"url_preview"`

	DurationSeconds int `env:"INPUT_DURATION_SECONDS" envDefault:"8" yaml:"duration_seconds"`
	ViewportWidth   int `env:"INPUT_VIEWPORT_WIDTH" envDefault:"1280" yaml:"viewport_width"`
	ViewportHeight  int `env:"INPUT_VIEWPORT_HEIGHT" envDefault:"720" yaml:"viewport_height"`

	// StepsPath points at the step script; empty selects the fallback motion
	StepsPath string `env:"INPUT_STEPS_JSON_PATH" yaml:"steps_json_path"`

	OutputFormat   OutputFormat `env:"INPUT_OUTPUT_FORMAT" envDefault:"both" yaml:"output_format"`
	GIFFPS         int          `env:"INPUT_GIF_FPS" envDefault:"12" yaml:"gif_fps"`
	GIFWidth       int          `env:"INPUT_GIF_WIDTH" envDefault:"900" yaml:"gif_width"`
	ThumbnailWidth int          `env:"INPUT_THUMBNAIL_WIDTH" envDefault:"800" yaml:"thumbnail_width"`

	PostComment bool   `env:"INPUT_POST_COMMENT" envDefault:"true" yaml:"post_comment"`
	Lang        string `env:"INPUT_LANG" envDefault:"en" yaml:"lang"`

	// Workspace is the checkout root; artifacts go to Workspace/pr-video-diff
	// unless OutputDir is set
	Workspace string `env:"GITHUB_WORKSPACE" envDefault:"/github/workspace" yaml:"workspace"`
	OutputDir string `env:"INPUT_OUTPUT_DIR" yaml:"output_dir"`

	ParallelCapture bool   `env:"INPUT_PARALLEL_CAPTURE" envDefault:"false" yaml:"parallel_capture"`
	Headless        bool   `env:"INPUT_HEADLESS" envDefault:"true" yaml:"headless"`
	SkipInstall     bool   `env:"INPUT_SKIP_BROWSER_INSTALL" envDefault:"false" yaml:"skip_browser_install"`
	LogLevel        string `env:"INPUT_LOG_LEVEL" envDefault:"normal" yaml:"log_level"`
	Metrics         bool   `env:"INPUT_METRICS" envDefault:"true" yaml:"metrics"`

	GitHub GitHub `yaml:"-"`
}

// GitHub is the part of the runner environment the collaborators use.
type GitHub struct {
	OutputFile  string `env:"GITHUB_OUTPUT"`
	StepSummary string `env:"GITHUB_STEP_SUMMARY"`
	ServerURL   string `env:"GITHUB_SERVER_URL" envDefault:"https://github.com"`
	Repository  string `env:"GITHUB_REPOSITORY"`
	RunID       string `env:"GITHUB_RUN_ID"`
	EventName   string `env:"GITHUB_EVENT_NAME"`
	EventPath   string `env:"GITHUB_EVENT_PATH"`
	Token       string `env:"GITHUB_TOKEN"`
}

// IsPullRequest reports whether the run was triggered by a pull_request event.
func (g GitHub) IsPullRequest() bool {
	return g.EventName == "pull_request"
}

// RunURL links to the workflow run, or "" outside Actions.
func (g GitHub) RunURL() string {
	if g.Repository == "" || g.RunID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s", strings.TrimRight(g.ServerURL, "/"), g.Repository, g.RunID)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment and, when path is set, overlays the YAML file
// at path. Keys absent from the file keep their environment values. The
// result is not validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, &ConfigError{Err: err}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("failed to parse config file: %w", err)}
	}
	return cfg, nil
}

// Validate checks the configuration and returns a *ConfigError for the first
// problem found.
func (c *Config) Validate() error {
	if err := checkURL("INPUT_URL_BASE", c.BaseURL); err != nil {
		return err
	}
	if err := checkURL("INPUT_URL_PREVIEW", c.PreviewURL); err != nil {
		return err
	}

	if c.DurationSeconds < 0 {
		return invalid("INPUT_DURATION_SECONDS", "cannot be negative")
	}
	if c.ViewportWidth <= 0 {
		return invalid("INPUT_VIEWPORT_WIDTH", "must be positive")
	}
	if c.ViewportHeight <= 0 {
		return invalid("INPUT_VIEWPORT_HEIGHT", "must be positive")
	}

	switch c.OutputFormat {
	case FormatMP4, FormatGIF, FormatBoth:
	default:
		return invalid("INPUT_OUTPUT_FORMAT", "%q (must be 'mp4', 'gif' or 'both')", c.OutputFormat)
	}

	if c.GIFFPS <= 0 {
		return invalid("INPUT_GIF_FPS", "must be positive")
	}
	if c.GIFWidth <= 0 {
		return invalid("INPUT_GIF_WIDTH", "must be positive")
	}
	if c.ThumbnailWidth <= 0 {
		return invalid("INPUT_THUMBNAIL_WIDTH", "must be positive")
	}

	if c.LogLevel == "" {
		c.LogLevel = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return invalid("INPUT_LOG_LEVEL", "%q (must be 'quiet', 'normal', 'verbose' or 'debug')", c.LogLevel)
	}

	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Workspace == "" && c.OutputDir == "" {
		return invalid("GITHUB_WORKSPACE", "%w", ErrMissing)
	}
	return nil
}

func checkURL(input, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ConfigError{Input: input, Err: ErrMissing}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid(input, "%w", err)
	}
	if u.Scheme == "" {
		return invalid(input, "%q is not an absolute URL", raw)
	}
	return nil
}

// Duration is the target capture length.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// OutputPath is the directory all artifacts are written to.
func (c *Config) OutputPath() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.Workspace, OutputDirName)
}
