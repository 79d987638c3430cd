// Package runner executes one PR video diff run end to end: load the step
// script, capture base and preview, check both recordings are playable,
// compose the artifacts, and hand them to the GitHub collaborators.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/isaiicatmat/pr-video-diff/pkg/capture"
	"github.com/isaiicatmat/pr-video-diff/pkg/config"
	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
	"github.com/isaiicatmat/pr-video-diff/pkg/media"
	"github.com/isaiicatmat/pr-video-diff/pkg/report"
	"github.com/isaiicatmat/pr-video-diff/pkg/steps"
	"github.com/isaiicatmat/pr-video-diff/pkg/telemetry"
)

// MetricsFileName is the Prometheus textfile written next to the artifacts.
const MetricsFileName = "metrics.prom"

// Result is what a successful run produced.
type Result struct {
	RunID      string
	Artifact   media.ComposedArtifact
	CommentURL string
	RecordPath string
}

// Runner wires the capture, media and report packages for one run.
type Runner struct {
	cfg      *config.Config
	launcher capture.Launcher
	cmd      media.Commander
	console  *logging.Console
	log      *logging.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time

	startTime time.Time
	record    *report.RunRecord
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the Playwright runtime, mainly for tests.
func WithLauncher(l capture.Launcher) Option {
	return func(r *Runner) { r.launcher = l }
}

// WithCommander replaces the process runner used for ffmpeg, ffprobe and gh.
func WithCommander(c media.Commander) Option {
	return func(r *Runner) { r.cmd = c }
}

// WithConsole sets the console reporter.
func WithConsole(c *logging.Console) Option {
	return func(r *Runner) { r.console = c }
}

// WithLogger sets the run logger. Without it the runner logs to
// <output>/logs/<run-id>.log.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// New validates cfg and creates a runner. An invalid configuration is
// reported as a *config.ConfigError before anything is launched.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg: cfg,
		cmd: media.ExecCommander{},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.console == nil {
		r.console = logging.NewConsole(logging.ParseLevel(cfg.LogLevel))
	}
	if cfg.Metrics {
		r.metrics = telemetry.NewMetrics()
	}
	return r, nil
}

// Run executes the run. Any capture, step, or pipeline failure is fatal and
// returned unchanged so callers can inspect it with errors.As; failing to
// post the PR comment is only reported.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.startTime = r.now()
	outDir := r.cfg.OutputPath()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if r.log == nil {
		log, err := logging.NewLogger(filepath.Join(outDir, "logs"), "runner")
		if err != nil {
			r.console.Warningf("file logging unavailable: %v", err)
		}
		defer log.Close()
		r.log = log
	}

	r.record = &report.RunRecord{
		RunID:      r.log.RunID(),
		Status:     logging.StatusFailed,
		StartTime:  r.startTime,
		BaseURL:    r.cfg.BaseURL,
		PreviewURL: r.cfg.PreviewURL,
	}

	r.console.Header("PR Video Diff")
	r.console.Verbosef("Run ID: %s", r.record.RunID)
	r.console.Verbosef("Output: %s", outDir)

	script, err := steps.Load(r.cfg.StepsPath)
	if err != nil {
		return nil, r.fail(err)
	}
	r.record.Scripted = !script.Empty()
	r.record.Steps = len(script)
	if script.Empty() {
		r.console.Infof("No step script, using fallback scroll motion")
	} else {
		r.console.Infof("Loaded %d step(s) from %s", len(script), r.cfg.StepsPath)
	}

	pair, err := r.capture(ctx, outDir, script)
	if err != nil {
		return nil, r.fail(err)
	}

	if err := r.checkPlayable(ctx, pair); err != nil {
		return nil, r.fail(err)
	}

	artifact, err := r.compose(ctx, outDir, pair)
	if err != nil {
		return nil, r.fail(err)
	}

	commentURL, err := r.publish(ctx, artifact)
	if err != nil {
		return nil, r.fail(err)
	}

	r.record.Status = logging.StatusSuccess
	recordPath := r.finalize(nil)

	return &Result{
		RunID:      r.record.RunID,
		Artifact:   *artifact,
		CommentURL: commentURL,
		RecordPath: recordPath,
	}, nil
}

func (r *Runner) capture(ctx context.Context, outDir string, script steps.Script) (*capture.Pair, error) {
	r.console.Section("Capture")

	launcher := r.launcher
	if launcher == nil {
		runtime := capture.NewRuntime(capture.RuntimeOptions{
			Headless:    r.cfg.Headless,
			SkipInstall: r.cfg.SkipInstall,
			Logger:      r.log.For("playwright"),
		})
		r.console.Step("Starting Playwright")
		if err := runtime.Initialize(); err != nil {
			return nil, err
		}
		defer func() {
			if err := runtime.Shutdown(); err != nil {
				r.log.Warnf("%v", err)
			}
		}()
		launcher = runtime
	}

	interp := steps.NewInterpreter(
		steps.WithLogger(r.log.For("steps")),
		steps.WithMetrics(r.metrics),
	)
	controller := capture.NewController(launcher, interp, outDir,
		capture.WithLogger(r.log.For("capture")),
		capture.WithMetrics(r.metrics),
	)
	orchestrator := capture.NewOrchestrator(controller, r.cfg.ParallelCapture, r.log.For("orchestrator"))

	r.console.Step(fmt.Sprintf("Recording %s and %s (%ds, %dx%d)",
		r.cfg.BaseURL, r.cfg.PreviewURL, r.cfg.DurationSeconds, r.cfg.ViewportWidth, r.cfg.ViewportHeight))

	pair, err := orchestrator.Run(ctx, capture.Targets{
		BaseURL:    r.cfg.BaseURL,
		PreviewURL: r.cfg.PreviewURL,
		Viewport:   capture.Viewport{Width: r.cfg.ViewportWidth, Height: r.cfg.ViewportHeight},
		Duration:   r.cfg.Duration(),
	}, script)
	if err != nil {
		return nil, err
	}

	r.console.Successf("Captured base and preview")
	return pair, nil
}

// checkPlayable probes both raw recordings before any pipeline work.
func (r *Runner) checkPlayable(ctx context.Context, pair *capture.Pair) error {
	prober := media.NewProber(r.cmd, "")
	for _, res := range []*capture.Result{pair.Base, pair.Preview} {
		url := r.cfg.BaseURL
		if res.Tag == capture.TagPreview {
			url = r.cfg.PreviewURL
		}

		d, err := prober.Duration(ctx, res.RawVideoPath)
		if err != nil {
			return &capture.CaptureError{
				Tag:   res.Tag,
				URL:   url,
				State: capture.StateClosed,
				Err:   fmt.Errorf("recorded video is not playable: %w", err),
			}
		}

		r.console.Verbosef("%s recording: %s (%.1fs)", res.Tag, res.RawVideoPath, d.Seconds())
		r.record.Captures = append(r.record.Captures, report.CaptureRecord{
			Tag:      res.Tag,
			URL:      url,
			Video:    res.RawVideoPath,
			Duration: d,
		})
	}
	return nil
}

func (r *Runner) compose(ctx context.Context, outDir string, pair *capture.Pair) (*media.ComposedArtifact, error) {
	r.console.Section("Compose")

	plan, err := media.BuildPlan(pair.Base.RawVideoPath, pair.Preview.RawVideoPath, media.Options{
		OutputDir:      outDir,
		WantAnimated:   r.cfg.OutputFormat.WantsGIF(),
		GIFFPS:         r.cfg.GIFFPS,
		GIFWidth:       r.cfg.GIFWidth,
		ThumbnailWidth: r.cfg.ThumbnailWidth,
	})
	if err != nil {
		return nil, err
	}
	for _, stage := range plan.Stages() {
		r.record.Stages = append(r.record.Stages, report.StageRecord{Name: stage.Name, Output: stage.Output})
	}

	pipeline := media.NewPipeline(r.cmd,
		media.WithLogger(r.log.For("media")),
		media.WithMetrics(r.metrics),
	)
	r.console.Step(fmt.Sprintf("Running %d ffmpeg stage(s)", len(plan.Stages())))
	artifact, err := pipeline.Run(ctx, plan)
	if err != nil {
		return nil, err
	}

	r.record.Artifacts = &report.ArtifactRecord{
		Video:         artifact.Video,
		AnimatedImage: artifact.AnimatedImage,
		Thumbnail:     artifact.Thumbnail,
	}
	r.console.Successf("Composed %s", artifact.Video)
	if artifact.AnimatedImage != "" {
		r.console.Successf("Animated %s", artifact.AnimatedImage)
	}
	return artifact, nil
}

// publish hands the artifacts to the step outputs, the job summary and,
// for pull requests, a comment.
func (r *Runner) publish(ctx context.Context, artifact *media.ComposedArtifact) (string, error) {
	r.console.Section("Publish")
	gh := r.cfg.GitHub

	if err := report.AppendSummary(gh.StepSummary, r.cfg.Lang, artifact.Thumbnail, gh.RunURL()); err != nil {
		return "", fmt.Errorf("failed to write job summary: %w", err)
	}

	outputs := report.NewOutputWriter(gh.OutputFile)
	pairs := [][2]string{
		{report.OutputVideo, artifact.Video},
		{report.OutputGIF, artifact.AnimatedImage},
		{report.OutputThumbnail, artifact.Thumbnail},
	}
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if err := outputs.Set(kv[0], kv[1]); err != nil {
			return "", fmt.Errorf("failed to set output %s: %w", kv[0], err)
		}
	}

	if !r.cfg.PostComment || !gh.IsPullRequest() {
		r.console.Verbosef("Skipping PR comment")
		return "", nil
	}

	commenter := report.NewCommenter(r.cmd, "", r.log.For("comment"))
	url, err := commenter.Post(ctx, gh, r.cfg.Lang)
	if err != nil {
		r.log.Warnf("comment failed: %v", err)
		r.console.Warningf("Could not comment on the PR: %v", err)
		return "", nil
	}
	if url != "" {
		if err := outputs.Set(report.OutputCommentURL, url); err != nil {
			return "", fmt.Errorf("failed to set output %s: %w", report.OutputCommentURL, err)
		}
		r.record.Comment = url
		r.console.Successf("Commented on the PR: %s", url)
	}
	return url, nil
}

// fail marks the run as failed and still writes the run record.
func (r *Runner) fail(err error) error {
	r.record.Status = logging.StatusFailed
	r.record.Error = err.Error()
	r.log.Errorf("run failed: %v", err)
	r.finalize(err)
	return err
}

// finalize writes run.json and the metrics textfile and prints the summary.
// Failures here are only reported.
func (r *Runner) finalize(runErr error) string {
	r.record.EndTime = r.now()
	r.record.Duration = r.record.EndTime.Sub(r.startTime)
	outDir := r.cfg.OutputPath()

	recordPath, err := report.WriteRecord(outDir, r.record)
	if err != nil {
		r.log.Warnf("%v", err)
		r.console.Warningf("%v", err)
	}

	if r.metrics != nil {
		if err := r.metrics.WriteTextfile(filepath.Join(outDir, MetricsFileName)); err != nil {
			r.log.Warnf("%v", err)
		}
	}

	rows := []logging.Row{
		{Label: "Run ID", Value: r.record.RunID},
		{Label: "Duration", Value: r.record.Duration.Round(time.Millisecond).String()},
		{Label: "Log", Value: r.log.LogPath()},
	}
	if a := r.record.Artifacts; a != nil {
		rows = append(rows,
			logging.Row{Label: "Video", Value: a.Video},
			logging.Row{Label: "GIF", Value: a.AnimatedImage},
			logging.Row{Label: "Thumbnail", Value: a.Thumbnail},
		)
	}
	rows = append(rows, logging.Row{Label: "Comment", Value: r.record.Comment})

	errText := ""
	if runErr != nil {
		errText = describe(runErr)
	}
	r.console.Summary(r.record.Status, rows, errText)
	return recordPath
}

// describe prefixes the error with its kind so the console summary says
// which part of the run failed.
func describe(err error) string {
	var (
		cfgErr    *config.ConfigError
		scriptErr *steps.ScriptError
		stepErr   *steps.StepExecutionError
		capErr    *capture.CaptureError
		mediaErr  *media.PipelineError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration: " + err.Error()
	case errors.As(err, &scriptErr):
		return "step script: " + err.Error()
	case errors.As(err, &stepErr):
		return "step execution: " + err.Error()
	case errors.As(err, &capErr):
		return "capture: " + err.Error()
	case errors.As(err, &mediaErr):
		return "media pipeline: " + err.Error()
	default:
		return err.Error()
	}
}
