package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
	"github.com/isaiicatmat/pr-video-diff/pkg/telemetry"
)

// DefaultFFmpeg is the ffmpeg binary looked up on PATH.
const DefaultFFmpeg = "ffmpeg"

// Pipeline executes plans.
type Pipeline struct {
	cmd     Commander
	ffmpeg  string
	log     *logging.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(l *logging.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics records stage durations and failures.
func WithMetrics(m *telemetry.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithFFmpeg overrides the ffmpeg binary.
func WithFFmpeg(path string) PipelineOption {
	return func(p *Pipeline) { p.ffmpeg = path }
}

// NewPipeline creates a pipeline running ffmpeg through cmd.
func NewPipeline(cmd Commander, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cmd:    cmd,
		ffmpeg: DefaultFFmpeg,
		log:    logging.Discard("media"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every phase of plan in order and returns the artifact. The
// first failing stage stops the pipeline; later phases never start.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) (*ComposedArtifact, error) {
	p.sweepPartials(plan.OutputDir)
	for _, phase := range plan.Phases {
		if err := p.runPhase(ctx, phase); err != nil {
			return nil, err
		}
	}
	artifact := plan.Artifact
	return &artifact, nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase []Stage) error {
	if len(phase) == 1 {
		return p.runStage(ctx, phase[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range phase {
		stage := stage
		g.Go(func() error {
			return p.runStage(gctx, stage)
		})
	}
	return g.Wait()
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return &PipelineError{Stage: stage.Name, Err: err}
	}
	for _, in := range stage.Inputs {
		if !nonEmpty(in) {
			return &PipelineError{Stage: stage.Name, Err: fmt.Errorf("%w: %s", ErrMissingInput, in)}
		}
	}

	if err := os.MkdirAll(filepath.Dir(stage.Output), 0755); err != nil {
		return &PipelineError{Stage: stage.Name, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	partial := PartialPath(stage.Output)
	_ = os.Remove(partial)

	args := stage.Args(partial)
	p.log.Infof("%s: %s %s", stage.Name, p.ffmpeg, strings.Join(args, " "))

	started := p.now()
	out, err := p.cmd.Run(ctx, p.ffmpeg, args...)
	if err == nil && !nonEmpty(partial) {
		err = errors.New("no output written")
	}
	if err == nil {
		err = os.Rename(partial, stage.Output)
	}
	p.metrics.RecordStage(stage.Name, p.now().Sub(started), err != nil)

	if err != nil {
		_ = os.Remove(partial)
		p.log.Errorf("%s failed: %v\n%s", stage.Name, err, out)
		return &PipelineError{Stage: stage.Name, Output: string(out), Err: err}
	}

	p.log.Debugf("%s wrote %s", stage.Name, stage.Output)
	return nil
}

// partialOutput matches files left behind by a stage that never finished.
var partialOutput = glob.MustCompile("*.partial.{mp4,gif,png}")

// sweepPartials removes partial outputs of an earlier aborted run so they
// are never mistaken for artifacts.
func (p *Pipeline) sweepPartials(dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !partialOutput.Match(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			p.log.Warnf("failed to remove stale %s: %v", path, err)
			continue
		}
		p.log.Debugf("removed stale %s", path)
	}
}

// PartialPath is where a stage writes before its output is final. The
// extension is kept last so ffmpeg still picks the right muxer.
func PartialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".partial" + ext
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
