package capture

import (
	"errors"
	"fmt"
)

// ErrNoVideo is reported when a session closes without a recorded video.
var ErrNoVideo = errors.New("no raw video was recorded")

// CaptureError reports a capture that could not produce a raw video:
// navigation or network idle exceeded its bound, the browser could not be
// launched, or the session finalized without a video.
type CaptureError struct {
	Tag   string
	URL   string
	State State
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s capture of %s failed while %s: %v", e.Tag, e.URL, e.State, e.Err)
}

// Unwrap returns the underlying error
func (e *CaptureError) Unwrap() error {
	return e.Err
}
