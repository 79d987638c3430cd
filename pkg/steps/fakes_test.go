package steps

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

var errSelectorTimeout = errors.New("timeout 10000ms exceeded waiting for selector")

// fakeClock advances only when the fake page waits.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakePage records every call in order.
type fakePage struct {
	clock *fakeClock

	calls []string

	// missing selectors fail Click, Fill and Type.
	missing map[string]bool
	// settleErr is returned from WaitForLoadState.
	settleErr error
	// evalErr is returned from Evaluate.
	evalErr error
	// actionCost is added to the clock by every non-wait call.
	actionCost time.Duration

	clickTimeouts []float64
	typeTimeouts  []float64
	typeDelays    []float64
}

func newFakePage(clock *fakeClock) *fakePage {
	return &fakePage{clock: clock, missing: map[string]bool{}}
}

func (p *fakePage) WaitForTimeout(timeout float64) {
	p.calls = append(p.calls, fmt.Sprintf("wait:%.0f", timeout))
	p.clock.Advance(time.Duration(timeout * float64(time.Millisecond)))
}

func (p *fakePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.calls = append(p.calls, fmt.Sprintf("scroll:%v", arg[0]))
	p.clock.Advance(p.actionCost)
	return nil, p.evalErr
}

func (p *fakePage) Click(selector string, options ...playwright.PageClickOptions) error {
	p.calls = append(p.calls, "click:"+selector)
	p.clock.Advance(p.actionCost)
	if len(options) > 0 && options[0].Timeout != nil {
		p.clickTimeouts = append(p.clickTimeouts, *options[0].Timeout)
	}
	if p.missing[selector] {
		return errSelectorTimeout
	}
	return nil
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.calls = append(p.calls, "settle")
	return p.settleErr
}

func (p *fakePage) Fill(selector, value string, options ...playwright.PageFillOptions) error {
	p.calls = append(p.calls, fmt.Sprintf("fill:%s=%q", selector, value))
	if len(options) > 0 && options[0].Timeout != nil {
		p.typeTimeouts = append(p.typeTimeouts, *options[0].Timeout)
	}
	if p.missing[selector] {
		return errSelectorTimeout
	}
	return nil
}

func (p *fakePage) Type(selector, text string, options ...playwright.PageTypeOptions) error {
	p.calls = append(p.calls, fmt.Sprintf("type:%s=%q", selector, text))
	if len(options) > 0 && options[0].Timeout != nil {
		p.typeTimeouts = append(p.typeTimeouts, *options[0].Timeout)
	}
	if len(options) > 0 && options[0].Delay != nil {
		p.typeDelays = append(p.typeDelays, *options[0].Delay)
		p.clock.Advance(time.Duration(float64(len(text)) * *options[0].Delay * float64(time.Millisecond)))
	}
	if p.missing[selector] {
		return errSelectorTimeout
	}
	return nil
}
