package timing

import (
	"fmt"
	"time"
)

// Limiter paces the driver loop to the board refresh rate.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. It returns
	// immediately when the loop is behind schedule.
	WaitForNextFrame()

	// Reset drops the timing state, e.g. after a pause.
	Reset()
}

// Pacing modes accepted by NewLimiter.
const (
	PaceAdaptive = "adaptive"
	PaceTicker   = "ticker"
	PaceNone     = "none"
)

// NewLimiter returns the limiter for a pacing mode at the given refresh rate
// in hundredths of Hz.
func NewLimiter(pace string, refreshRate int) (Limiter, error) {
	switch pace {
	case PaceAdaptive, "":
		return NewAdaptiveLimiter(refreshRate), nil
	case PaceTicker:
		return NewTickerLimiter(refreshRate), nil
	case PaceNone:
		return NewNoOpLimiter(), nil
	default:
		return nil, fmt.Errorf("unknown pacing mode %q", pace)
	}
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// DefaultRefreshRate is the board refresh rate in hundredths of Hz.
const DefaultRefreshRate = 5963

// TargetFPS converts a refresh rate in hundredths of Hz into frames per second.
func TargetFPS(refreshRate int) float64 {
	return float64(refreshRate) / 100
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration(refreshRate int) time.Duration {
	if refreshRate <= 0 {
		refreshRate = DefaultRefreshRate
	}
	return time.Duration(float64(time.Second) / TargetFPS(refreshRate))
}
