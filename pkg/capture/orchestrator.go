package capture

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
	"github.com/isaiicatmat/pr-video-diff/pkg/steps"
)

// Capturer records one capture. *Controller implements it.
type Capturer interface {
	Capture(ctx context.Context, cfg Config, script steps.Script) (*Result, error)
}

// Targets are the two renderings to compare plus the settings they share.
type Targets struct {
	BaseURL    string
	PreviewURL string
	Viewport   Viewport
	Duration   time.Duration
}

// Pair holds the results of both captures.
type Pair struct {
	Base    *Result
	Preview *Result
}

// Orchestrator captures base and preview with identical settings.
type Orchestrator struct {
	capturer Capturer
	parallel bool
	log      *logging.Logger
}

// NewOrchestrator creates an orchestrator. With parallel set the two
// captures run concurrently; they share no files or state, so only wall
// clock timing differs.
func NewOrchestrator(capturer Capturer, parallel bool, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Discard("orchestrator")
	}
	return &Orchestrator{capturer: capturer, parallel: parallel, log: log}
}

// Run captures both targets and returns both results, or the first error.
func (o *Orchestrator) Run(ctx context.Context, targets Targets, script steps.Script) (*Pair, error) {
	base := Config{URL: targets.BaseURL, Tag: TagBase, Viewport: targets.Viewport, Duration: targets.Duration}
	preview := Config{URL: targets.PreviewURL, Tag: TagPreview, Viewport: targets.Viewport, Duration: targets.Duration}

	if !o.parallel {
		o.log.Debugf("capturing sequentially")
		baseRes, err := o.capturer.Capture(ctx, base, script)
		if err != nil {
			return nil, err
		}
		previewRes, err := o.capturer.Capture(ctx, preview, script)
		if err != nil {
			return nil, err
		}
		return &Pair{Base: baseRes, Preview: previewRes}, nil
	}

	o.log.Debugf("capturing in parallel")
	var pair Pair
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := o.capturer.Capture(gctx, base, script)
		pair.Base = res
		return err
	})
	g.Go(func() error {
		res, err := o.capturer.Capture(gctx, preview, script)
		pair.Preview = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &pair, nil
}
