package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
	"github.com/isaiicatmat/pr-video-diff/pkg/steps"
	"github.com/isaiicatmat/pr-video-diff/pkg/telemetry"
)

// Controller drives single capture sessions. It keeps no state between
// captures and may run several concurrently.
type Controller struct {
	launcher  Launcher
	interp    *steps.Interpreter
	outputDir string
	log       *logging.Logger
	metrics   *telemetry.Metrics
	now       func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *logging.Logger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// WithMetrics records capture durations and failures.
func WithMetrics(m *telemetry.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// WithClock replaces the wall clock used for padding and metrics.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller recording into outputDir/video-<tag>.
func NewController(launcher Launcher, interp *steps.Interpreter, outputDir string, opts ...ControllerOption) *Controller {
	c := &Controller{
		launcher:  launcher,
		interp:    interp,
		outputDir: outputDir,
		log:       logging.Discard("capture"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PadDuration returns how long to keep recording after an interaction that
// took elapsed, so the interaction phase lasts at least target minus one
// second. It is never negative.
func PadDuration(target, elapsed time.Duration) time.Duration {
	pad := target - PadAllowance - elapsed
	if pad < 0 {
		return 0
	}
	return pad
}

// Capture records cfg.URL while replaying script, or the fallback motion
// when script is empty.
//
// It returns a Result with a non-empty raw video path, or an error: a
// *CaptureError for launch, navigation and finalization failures, or an
// error wrapping *steps.StepExecutionError when a step fails. Once a
// session is launched it is always closed before Capture returns.
func (c *Controller) Capture(ctx context.Context, cfg Config, script steps.Script) (res *Result, err error) {
	if verr := cfg.validate(); verr != nil {
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateIdle, Err: verr}
	}

	// Recordings from an earlier run in the same output directory must never
	// be mistaken for this session's video.
	videoDir := filepath.Join(c.outputDir, "video-"+cfg.Tag)
	if rmErr := os.RemoveAll(videoDir); rmErr != nil {
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateIdle, Err: fmt.Errorf("failed to clear video directory: %w", rmErr)}
	}
	if mkErr := os.MkdirAll(videoDir, 0755); mkErr != nil {
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateIdle, Err: fmt.Errorf("failed to create video directory: %w", mkErr)}
	}

	started := c.now()
	sess, err := c.launcher.Launch(LaunchOptions{Viewport: cfg.Viewport, VideoDir: videoDir})
	if err != nil {
		c.metrics.RecordCaptureFailure(cfg.Tag, StateIdle.String())
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateIdle, Err: err}
	}

	state := StateIdle
	failedIn := StateIdle
	moveTo := func(next State) {
		c.log.Debugf("[%s] %s → %s", cfg.Tag, state, next)
		state = next
	}

	defer func() {
		if err != nil {
			failedIn = state
		}
		moveTo(StateFinalizing)
		videoPath, closeErr := sess.Close()
		moveTo(StateClosed)
		c.metrics.RecordCapture(cfg.Tag, c.now().Sub(started))

		if closeErr != nil {
			c.log.Warnf("[%s] teardown reported: %v", cfg.Tag, closeErr)
		}

		if err != nil {
			c.metrics.RecordCaptureFailure(cfg.Tag, failedIn.String())
			res = nil
			return
		}

		if videoPath == "" {
			c.metrics.RecordCaptureFailure(cfg.Tag, StateFinalizing.String())
			noVideo := ErrNoVideo
			if closeErr != nil {
				noVideo = fmt.Errorf("%w: %v", ErrNoVideo, closeErr)
			}
			res, err = nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateFinalizing, Err: noVideo}
			return
		}

		c.log.Infof("[%s] recorded %s", cfg.Tag, videoPath)
		res = &Result{Tag: cfg.Tag, RawVideoPath: videoPath}
	}()

	page := sess.Page()

	moveTo(StateNavigating)
	c.log.Infof("[%s] navigating to %s", cfg.Tag, cfg.URL)
	if _, navErr := page.Goto(cfg.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(NavigationTimeout.Milliseconds())),
	}); navErr != nil {
		moveTo(StateNavigationFailed)
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateNavigationFailed, Err: fmt.Errorf("navigation failed: %w", navErr)}
	}
	if idleErr := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(NetworkIdleTimeout.Milliseconds())),
	}); idleErr != nil {
		moveTo(StateNavigationFailed)
		return nil, &CaptureError{Tag: cfg.Tag, URL: cfg.URL, State: StateNavigationFailed, Err: fmt.Errorf("network did not become idle: %w", idleErr)}
	}
	moveTo(StateLoaded)

	moveTo(StateInteracting)
	var elapsed time.Duration
	if script.Empty() {
		elapsed, err = c.interp.Fallback(ctx, page, cfg.Duration)
	} else {
		elapsed, err = c.interp.Execute(ctx, page, script)
	}
	if err != nil {
		return nil, fmt.Errorf("%s capture: %w", cfg.Tag, err)
	}

	moveTo(StateDurationPad)
	if pad := PadDuration(cfg.Duration, elapsed); pad > 0 {
		c.log.Debugf("[%s] interaction took %s, padding %s", cfg.Tag, elapsed, pad)
		page.WaitForTimeout(float64(pad.Milliseconds()))
	}

	return nil, nil
}
