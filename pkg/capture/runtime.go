package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
)

// RuntimeOptions configures the Playwright runtime.
type RuntimeOptions struct {
	// Headless controls whether browsers run without a visible window
	Headless bool

	// SkipInstall skips downloading the driver and Chromium, for images
	// that ship them preinstalled
	SkipInstall bool

	// Logger receives driver output and lifecycle messages
	Logger *logging.Logger
}

// Runtime owns the Playwright driver and launches Chromium sessions with
// video recording. It implements Launcher.
type Runtime struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	headless    bool
	skipInstall bool
	log         *logging.Logger
	initialized bool
}

// NewRuntime creates a runtime. Initialize must be called before Launch.
func NewRuntime(opts RuntimeOptions) *Runtime {
	log := opts.Logger
	if log == nil {
		log = logging.Discard("capture")
	}
	return &Runtime{
		headless:    opts.Headless,
		skipInstall: opts.SkipInstall,
		log:         log,
	}
}

// Initialize installs (unless skipped) and starts the Playwright driver.
func (r *Runtime) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	// Driver output goes to the run log so it does not interleave with the
	// console summary.
	var out io.Writer = r.log.Writer()
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   out,
		Stderr:   out,
	}

	if !r.skipInstall {
		r.log.Infof("installing playwright driver and chromium")
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	r.playwright = pw
	r.initialized = true
	return nil
}

// Launch starts a browser, a recording context and a page. Anything opened
// before a failure is closed again before returning.
func (r *Runtime) Launch(opts LaunchOptions) (Session, error) {
	r.mu.Lock()
	pw, initialized := r.playwright, r.initialized
	r.mu.Unlock()

	if !initialized {
		return nil, fmt.Errorf("playwright runtime not initialized")
	}

	started := time.Now()
	size := &playwright.Size{
		Width:  opts.Viewport.Width,
		Height: opts.Viewport.Height,
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: size,
		RecordVideo: &playwright.RecordVideo{
			Dir:  opts.VideoDir,
			Size: size,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	r.log.Debugf("launched chromium (headless=%v) recording into %s", r.headless, opts.VideoDir)
	return &playwrightSession{
		browser:  browser,
		context:  context,
		page:     page,
		videoDir: opts.VideoDir,
		started:  started,
		log:      r.log,
	}, nil
}

// Shutdown stops the Playwright driver.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized || r.playwright == nil {
		return nil
	}
	r.initialized = false
	if err := r.playwright.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// playwrightSession is a Session backed by real Playwright handles.
type playwrightSession struct {
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	videoDir string
	started  time.Time
	log      *logging.Logger
}

func (s *playwrightSession) Page() Page {
	return s.page
}

// Close releases page, context and browser. The video file is only
// complete once the context is closed, so its path is resolved between the
// two and verified afterwards.
func (s *playwrightSession) Close() (string, error) {
	var errs []error

	video := s.page.Video()
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}

	var videoPath string
	if video != nil {
		path, err := video.Path()
		if err != nil {
			s.log.Warnf("video handle did not report a path: %v", err)
		} else {
			videoPath = path
		}
	}

	if err := s.context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}

	if videoPath == "" || !nonEmptyFile(videoPath) {
		found, err := findVideo(s.videoDir, s.started)
		if err != nil {
			errs = append(errs, err)
		}
		if found != "" {
			s.log.Debugf("recovered recorded video %s by directory scan", found)
		}
		videoPath = found
	}

	return videoPath, errors.Join(errs...)
}
