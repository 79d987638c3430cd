package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput is returned when a stage input is absent or empty.
var ErrMissingInput = errors.New("input missing or empty")

// PipelineError reports a failed stage. Output holds the combined
// stdout/stderr of the tool, when it ran.
type PipelineError struct {
	Stage  string
	Output string
	Err    error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("media stage %s failed: %v", e.Stage, e.Err)
	if tail := lastLine(e.Output); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// lastLine returns the last non-blank line of out; ffmpeg puts the reason
// for a failure there.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
