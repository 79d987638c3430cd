package capture

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/isaiicatmat/pr-video-diff/pkg/steps"
)

// Capture tags.
const (
	TagBase    = "base"
	TagPreview = "preview"
)

// Default values for sessions
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	// NavigationTimeout bounds the initial page load.
	NavigationTimeout = 60 * time.Second
	// NetworkIdleTimeout bounds the wait for network quiescence after load.
	NetworkIdleTimeout = 45 * time.Second
	// PadAllowance is subtracted from the target duration when padding.
	PadAllowance = time.Second
)

// Viewport represents the browser viewport dimensions. Videos are recorded
// at the same size.
type Viewport struct {
	Width  int
	Height int
}

// Config describes one capture. It is passed by value and never mutated.
type Config struct {
	// URL is the page to record
	URL string

	// Tag identifies the capture ("base" or "preview") and names its
	// output directory
	Tag string

	// Viewport sets the page and video size
	Viewport Viewport

	// Duration is the target length of the interaction
	Duration time.Duration
}

func (c Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Tag == "" {
		return fmt.Errorf("tag is required")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

// Result is the raw video produced by one successful capture.
type Result struct {
	Tag          string
	RawVideoPath string
}

// State is a step of the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateLoaded
	StateNavigationFailed
	StateInteracting
	StateDurationPad
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateLoaded:
		return "loaded"
	case StateNavigationFailed:
		return "navigation-failed"
	case StateInteracting:
		return "interacting"
	case StateDurationPad:
		return "duration-pad"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Page is the subset of playwright.Page a capture drives.
type Page interface {
	steps.Page
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
}

// Session is one launched browser session recording video.
type Session interface {
	// Page returns the page being recorded
	Page() Page

	// Close releases the page, the context and the browser, in that order,
	// and returns the path of the recorded video ("" when none was written).
	// Close must release every resource even when it returns an error.
	Close() (videoPath string, err error)
}

// LaunchOptions configures a new session.
type LaunchOptions struct {
	Viewport Viewport
	VideoDir string
}

// Launcher opens isolated recording sessions.
type Launcher interface {
	Launch(opts LaunchOptions) (Session, error)
}
