package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiicatmat/pr-video-diff/pkg/steps"
	"github.com/isaiicatmat/pr-video-diff/pkg/telemetry"
)

// fakeClock advances only when the fake page waits.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakePage struct {
	clock *fakeClock

	gotoErr   error
	idleErr   error
	missing   map[string]bool
	gotoURL   string
	waited    time.Duration
	scrolls   int
	clicks    []string
	gotoCalls int
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotoCalls++
	p.gotoURL = url
	return nil, p.gotoErr
}

func (p *fakePage) WaitForTimeout(timeout float64) {
	d := time.Duration(timeout * float64(time.Millisecond))
	p.waited += d
	p.clock.Advance(d)
}

func (p *fakePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.scrolls++
	return nil, nil
}

func (p *fakePage) Click(selector string, options ...playwright.PageClickOptions) error {
	p.clicks = append(p.clicks, selector)
	if p.missing[selector] {
		return errors.New("timeout 10000ms exceeded")
	}
	return nil
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	if len(options) > 0 && options[0].Timeout != nil && *options[0].Timeout == float64(NetworkIdleTimeout.Milliseconds()) {
		return p.idleErr
	}
	return nil
}

func (p *fakePage) Fill(selector, value string, options ...playwright.PageFillOptions) error {
	return nil
}

func (p *fakePage) Type(selector, text string, options ...playwright.PageTypeOptions) error {
	return nil
}

type fakeSession struct {
	page      *fakePage
	videoPath string
	closeErr  error
	closed    int
}

func (s *fakeSession) Page() Page { return s.page }

func (s *fakeSession) Close() (string, error) {
	s.closed++
	return s.videoPath, s.closeErr
}

type fakeLauncher struct {
	mu        sync.Mutex
	clock     *fakeClock
	launchErr error
	configure func(tag string, s *fakeSession)
	sessions  map[string]*fakeSession
	opts      []LaunchOptions
}

func newFakeLauncher(clock *fakeClock) *fakeLauncher {
	return &fakeLauncher{clock: clock, sessions: map[string]*fakeSession{}}
}

func (l *fakeLauncher) Launch(opts LaunchOptions) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opts = append(l.opts, opts)
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	tag := filepath.Base(opts.VideoDir)
	s := &fakeSession{
		page:      &fakePage{clock: l.clock, missing: map[string]bool{}},
		videoPath: filepath.Join(opts.VideoDir, "recording.webm"),
	}
	if l.configure != nil {
		l.configure(tag, s)
	}
	l.sessions[tag] = s
	return s, nil
}

func newTestController(t *testing.T, launcher *fakeLauncher, clock *fakeClock) (*Controller, string) {
	t.Helper()
	out := t.TempDir()
	interp := steps.NewInterpreter(steps.WithClock(clock.Now))
	return NewController(launcher, interp, out, WithClock(clock.Now)), out
}

func testConfig(tag string) Config {
	return Config{
		URL:      "https://" + tag + ".example.com",
		Tag:      tag,
		Viewport: Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		Duration: 5 * time.Second,
	}
}

func TestController_FallbackCapture(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	ctrl, out := newTestController(t, launcher, clock)

	res, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, TagBase, res.Tag)
	assert.Equal(t, filepath.Join(out, "video-base", "recording.webm"), res.RawVideoPath)
	assert.DirExists(t, filepath.Join(out, "video-base"))

	sess := launcher.sessions["video-base"]
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, "https://base.example.com", sess.page.gotoURL)
	assert.Equal(t, 7, sess.page.scrolls)
	// 7 * 600ms of fallback already exceeds 5s - 1s, so no pad.
	assert.Equal(t, 4200*time.Millisecond, sess.page.waited)

	assert.Equal(t, Viewport{Width: 1280, Height: 720}, launcher.opts[0].Viewport)
}

func TestController_PadsShortScript(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	ctrl, _ := newTestController(t, launcher, clock)

	cfg := testConfig(TagPreview)
	cfg.Duration = 8 * time.Second

	_, err := ctrl.Capture(context.Background(), cfg, steps.Script{steps.Click{Selector: "#tab"}})
	require.NoError(t, err)

	sess := launcher.sessions["video-preview"]
	// 2s minimum script time, then padded to 8s - 1s.
	assert.Equal(t, 7*time.Second, sess.page.waited)
	assert.Equal(t, []string{"#tab"}, sess.page.clicks)
}

func TestController_NavigationFailure(t *testing.T) {
	tests := []struct {
		name      string
		configure func(tag string, s *fakeSession)
		wantMsg   string
	}{
		{
			name:      "load timeout",
			configure: func(_ string, s *fakeSession) { s.page.gotoErr = errors.New("timeout 60000ms exceeded") },
			wantMsg:   "navigation failed",
		},
		{
			name:      "network never idle",
			configure: func(_ string, s *fakeSession) { s.page.idleErr = errors.New("timeout 45000ms exceeded") },
			wantMsg:   "network did not become idle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{}
			launcher := newFakeLauncher(clock)
			launcher.configure = tt.configure
			ctrl, _ := newTestController(t, launcher, clock)

			res, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)
			assert.Nil(t, res)

			var capErr *CaptureError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, StateNavigationFailed, capErr.State)
			assert.Equal(t, TagBase, capErr.Tag)
			assert.Contains(t, err.Error(), tt.wantMsg)

			sess := launcher.sessions["video-base"]
			assert.Equal(t, 1, sess.closed, "session must be released on the failure path")
			assert.Zero(t, sess.page.scrolls)
		})
	}
}

func TestController_StepFailureReleasesSession(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	launcher.configure = func(_ string, s *fakeSession) { s.page.missing["#ghost"] = true }
	metrics := telemetry.NewMetrics()
	out := t.TempDir()
	ctrl := NewController(launcher, steps.NewInterpreter(steps.WithClock(clock.Now)), out,
		WithClock(clock.Now), WithMetrics(metrics))

	res, err := ctrl.Capture(context.Background(), testConfig(TagPreview), steps.Script{
		steps.Wait{Duration: 100 * time.Millisecond},
		steps.Click{Selector: "#ghost"},
	})
	assert.Nil(t, res)

	var stepErr *steps.StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Contains(t, err.Error(), "preview capture")

	sess := launcher.sessions["video-preview"]
	assert.Equal(t, 1, sess.closed)
	// No padding after a failed step.
	assert.Equal(t, 100*time.Millisecond, sess.page.waited)
}

func TestController_NoVideo(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	launcher.configure = func(_ string, s *fakeSession) {
		s.videoPath = ""
		s.closeErr = errors.New("close context: target closed")
	}
	ctrl, _ := newTestController(t, launcher, clock)

	res, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)
	assert.Nil(t, res)

	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, StateFinalizing, capErr.State)
	assert.ErrorIs(t, err, ErrNoVideo)
	assert.Contains(t, err.Error(), "target closed")
}

func TestController_TeardownErrorWithVideoSucceeds(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	launcher.configure = func(_ string, s *fakeSession) { s.closeErr = errors.New("close browser: already closed") }
	ctrl, _ := newTestController(t, launcher, clock)

	res, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RawVideoPath)
}

func TestController_LaunchFailure(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	launcher.launchErr = errors.New("failed to launch browser: chromium missing")
	ctrl, _ := newTestController(t, launcher, clock)

	_, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)

	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, StateIdle, capErr.State)
	assert.Empty(t, launcher.sessions)
}

func TestController_InvalidConfig(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	ctrl, _ := newTestController(t, launcher, clock)

	cfg := testConfig(TagBase)
	cfg.URL = ""
	_, err := ctrl.Capture(context.Background(), cfg, nil)

	var capErr *CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.Contains(t, err.Error(), "url is required")
	assert.Empty(t, launcher.opts, "nothing is launched for an invalid config")
}

func TestPadDuration(t *testing.T) {
	tests := []struct {
		target, elapsed, want time.Duration
	}{
		{5 * time.Second, 0, 4 * time.Second},
		{5 * time.Second, 2 * time.Second, 2 * time.Second},
		{5 * time.Second, 4 * time.Second, 0},
		{5 * time.Second, 9 * time.Second, 0},
		{0, 0, 0},
		{500 * time.Millisecond, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PadDuration(tt.target, tt.elapsed), fmt.Sprintf("target=%s elapsed=%s", tt.target, tt.elapsed))
	}
}

func TestFindVideo(t *testing.T) {
	dir := t.TempDir()
	var epoch time.Time

	got, err := findVideo(filepath.Join(dir, "missing"), epoch)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.webm"), nil, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	got, err = findVideo(dir, epoch)
	require.NoError(t, err)
	assert.Empty(t, got, "empty recordings and other files are ignored")

	older := filepath.Join(dir, "a.webm")
	newer := filepath.Join(dir, "b.webm")
	require.NoError(t, os.WriteFile(older, []byte("old"), 0600))
	require.NoError(t, os.WriteFile(newer, []byte("new"), 0600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	got, err = findVideo(dir, epoch)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestFindVideo_IgnoresEarlierRuns(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "previous-run.webm")
	require.NoError(t, os.WriteFile(previous, []byte("old recording"), 0600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(previous, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "this-run.webm"), nil, 0600))

	got, err := findVideo(dir, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestController_ClearsEarlierRecordings(t *testing.T) {
	clock := &fakeClock{}
	launcher := newFakeLauncher(clock)
	launcher.configure = func(_ string, s *fakeSession) { s.videoPath = "" }
	ctrl, out := newTestController(t, launcher, clock)

	stale := filepath.Join(out, "video-"+TagBase, "previous-run.webm")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old recording"), 0600))

	res, err := ctrl.Capture(context.Background(), testConfig(TagBase), nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoVideo)
	assert.NoFileExists(t, stale)
	assert.DirExists(t, filepath.Dir(stale))
}
