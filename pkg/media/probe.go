package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFFprobe is the ffprobe binary looked up on PATH.
const DefaultFFprobe = "ffprobe"

// Prober reads container durations with ffprobe.
type Prober struct {
	cmd    Commander
	binary string
}

// NewProber creates a prober. An empty binary means DefaultFFprobe.
func NewProber(cmd Commander, binary string) *Prober {
	if binary == "" {
		binary = DefaultFFprobe
	}
	return &Prober{cmd: cmd, binary: binary}
}

// Duration returns the duration of the media file at path. A file ffprobe
// cannot read, or one without a positive duration, is an error.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := p.cmd.Run(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		if tail := lastLine(string(out)); tail != "" {
			return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, tail)
		}
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	text := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unreadable duration %q", path, text)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe %s: duration %q is not positive", path, text)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
