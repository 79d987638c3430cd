// Package steps defines the scripted interactions replayed against a captured
// page and the interpreter that executes them.
//
// A Script is an ordered list of four primitive actions: Wait, Scroll, Click
// and Type. The same immutable Script is replayed against both the base and
// the preview page so the two recordings show the same interaction. An empty
// Script means "no script" and the interpreter falls back to a generated
// scrolling motion sized to the requested capture duration.
package steps

import (
	"fmt"
	"time"
)

// Kind discriminates the step variants. The values match the "type" field
// of the script file.
type Kind string

const (
	KindWait   Kind = "wait"
	KindScroll Kind = "scroll"
	KindClick  Kind = "click"
	KindType   Kind = "type"
)

// Step is one interaction primitive. The set of implementations is closed:
// only the types in this package satisfy it.
type Step interface {
	Kind() Kind
	String() string
	step()
}

// Wait pauses the page timeline.
type Wait struct {
	Duration time.Duration
}

// Scroll smoothly scrolls the window by Y pixels, then optionally pauses
// for Settle to let the animation finish.
type Scroll struct {
	Y      int
	Settle time.Duration
}

// Click clicks the first element matching Selector.
type Click struct {
	Selector string
}

// Type clears the field matching Selector and types Text into it one
// character at a time, Delay apart.
type Type struct {
	Selector string
	Text     string
	Delay    time.Duration
}

func (Wait) Kind() Kind   { return KindWait }
func (Scroll) Kind() Kind { return KindScroll }
func (Click) Kind() Kind  { return KindClick }
func (Type) Kind() Kind   { return KindType }

func (Wait) step()   {}
func (Scroll) step() {}
func (Click) step()  {}
func (Type) step()   {}

func (s Wait) String() string { return fmt.Sprintf("wait %s", s.Duration) }

func (s Scroll) String() string {
	if s.Settle > 0 {
		return fmt.Sprintf("scroll %dpx (settle %s)", s.Y, s.Settle)
	}
	return fmt.Sprintf("scroll %dpx", s.Y)
}

func (s Click) String() string { return fmt.Sprintf("click %q", s.Selector) }

func (s Type) String() string {
	return fmt.Sprintf("type %d chars into %q", len([]rune(s.Text)), s.Selector)
}

// Script is an ordered sequence of steps. Order is significant.
type Script []Step

// Empty reports whether the script has no steps, which selects the
// fallback motion.
func (s Script) Empty() bool {
	return len(s) == 0
}
