package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
	"github.com/isaiicatmat/pr-video-diff/pkg/telemetry"
)

// Bounds applied while executing steps.
const (
	// ClickTimeout bounds how long a click waits for its selector.
	ClickTimeout = 10 * time.Second
	// ClickSettleTimeout bounds the best-effort network-idle wait after a click.
	ClickSettleTimeout = 15 * time.Second
	// TypeTimeout bounds how long clearing and typing wait for their selector.
	// The published action sets no bound of its own for type steps; this
	// mirrors Playwright's default action timeout.
	TypeTimeout = 30 * time.Second
	// MinScriptDuration is the shortest interaction a script may produce;
	// faster scripts are padded so the clip is never degenerately short.
	MinScriptDuration = 2 * time.Second
)

const scrollExpression = `(y) => window.scrollBy({ top: y, behavior: 'smooth' })`

// Page is the subset of playwright.Page the interpreter drives.
type Page interface {
	WaitForTimeout(timeout float64)
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
	Click(selector string, options ...playwright.PageClickOptions) error
	WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error
	Fill(selector, value string, options ...playwright.PageFillOptions) error
	Type(selector, text string, options ...playwright.PageTypeOptions) error
}

// Interpreter executes scripts against one page at a time. It holds no
// per-page state and may be shared by concurrent sessions.
type Interpreter struct {
	log     *logging.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for step progress and swallowed waits.
func WithLogger(l *logging.Logger) Option {
	return func(in *Interpreter) { in.log = l }
}

// WithMetrics records executed steps.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(in *Interpreter) { in.metrics = m }
}

// WithClock replaces the wall clock used to measure elapsed time.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

// NewInterpreter creates an interpreter.
func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{
		log: logging.Discard("steps"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Execute runs script against page in order and returns the elapsed time,
// including any padding up to MinScriptDuration.
//
// A click or type whose selector does not resolve within its bound stops
// execution with a *StepExecutionError. Wait and scroll steps never fail.
// Cancellation of ctx is observed between steps.
func (in *Interpreter) Execute(ctx context.Context, page Page, script Script) (time.Duration, error) {
	start := in.now()

	for i, step := range script {
		if err := ctx.Err(); err != nil {
			return in.now().Sub(start), err
		}

		in.log.Debugf("step %d/%d: %s", i+1, len(script), step)
		if err := in.run(page, step); err != nil {
			in.log.Errorf("step %d/%d failed: %v", i+1, len(script), err)
			return in.now().Sub(start), &StepExecutionError{Index: i, Step: step, Err: err}
		}
		in.metrics.RecordStep(string(step.Kind()))
	}

	if spent := in.now().Sub(start); spent < MinScriptDuration {
		pad := MinScriptDuration - spent
		in.log.Debugf("script took %s, padding %s", spent, pad)
		page.WaitForTimeout(millis64(pad))
	}

	return in.now().Sub(start), nil
}

func (in *Interpreter) run(page Page, step Step) error {
	switch s := step.(type) {
	case Wait:
		page.WaitForTimeout(millis64(s.Duration))
		return nil

	case Scroll:
		in.scroll(page, s.Y)
		if s.Settle > 0 {
			page.WaitForTimeout(millis64(s.Settle))
		}
		return nil

	case Click:
		if err := page.Click(s.Selector, playwright.PageClickOptions{
			Timeout: playwright.Float(millis64(ClickTimeout)),
		}); err != nil {
			return fmt.Errorf("click failed: %w", err)
		}
		if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateNetworkidle,
			Timeout: playwright.Float(millis64(ClickSettleTimeout)),
		}); err != nil {
			in.log.Warnf("network did not settle after click %q: %v", s.Selector, err)
		}
		return nil

	case Type:
		timeout := playwright.Float(millis64(TypeTimeout))
		if err := page.Fill(s.Selector, "", playwright.PageFillOptions{Timeout: timeout}); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		if err := page.Type(s.Selector, s.Text, playwright.PageTypeOptions{
			Delay:   playwright.Float(millis64(s.Delay)),
			Timeout: timeout,
		}); err != nil {
			return fmt.Errorf("type failed: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported step %T", step)
	}
}

// scroll requests a smooth scroll. A failed evaluation is logged, not
// returned: scrolling is cosmetic and must not abort a capture.
func (in *Interpreter) scroll(page Page, y int) {
	if _, err := page.Evaluate(scrollExpression, y); err != nil {
		in.log.Warnf("scroll by %dpx failed: %v", y, err)
	}
}

func millis64(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
