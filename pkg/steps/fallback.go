package steps

import (
	"context"
	"time"
)

// Fallback motion parameters.
const (
	FallbackScrollOffset = 400
	FallbackSettle       = 600 * time.Millisecond
	fallbackInterval     = 700 * time.Millisecond
)

// FallbackIncrements returns how many scroll increments the fallback motion
// issues for a capture of the given duration: floor(ms/700), at least one.
func FallbackIncrements(duration time.Duration) int {
	n := int(duration / fallbackInterval)
	if n < 1 {
		return 1
	}
	return n
}

// Fallback scrolls page in fixed increments for roughly duration. The
// elapsed time approximates duration but is not an exact timer: each
// increment takes FallbackSettle plus the cost of the scroll request.
func (in *Interpreter) Fallback(ctx context.Context, page Page, duration time.Duration) (time.Duration, error) {
	start := in.now()
	n := FallbackIncrements(duration)
	in.log.Debugf("no script: %d fallback scroll increments for %s", n, duration)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return in.now().Sub(start), err
		}
		in.scroll(page, FallbackScrollOffset)
		page.WaitForTimeout(millis64(FallbackSettle))
		in.metrics.RecordStep(string(KindScroll))
	}

	return in.now().Sub(start), nil
}
