package timing

import (
	"log/slog"
	"time"
)

const (
	// spinThreshold is the remaining wait below which the limiter spins
	// instead of sleeping.
	spinThreshold = 2 * time.Millisecond
	// resyncThreshold is how far behind schedule the limiter may fall before
	// it drops the backlog and restarts pacing from now.
	resyncThreshold = 5 * time.Millisecond
	// reportFrames is the interval, in frames, between pacing reports.
	reportFrames = 600
)

// AdaptiveLimiter paces frames against an absolute deadline so that sleep
// inaccuracy in one frame is absorbed by the next. It sleeps for most of the
// wait and spins for the remainder.
type AdaptiveLimiter struct {
	target   time.Duration
	deadline time.Time

	frames  int64
	resyncs int64
	started time.Time
	now     func() time.Time
	sleep   func(time.Duration)
}

// NewAdaptiveLimiter paces frames at refreshRate hundredths of Hz.
func NewAdaptiveLimiter(refreshRate int) *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		target: FrameDuration(refreshRate),
		now:    time.Now,
		sleep:  time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	remaining := a.deadline.Sub(a.now())

	switch {
	case remaining > spinThreshold:
		a.sleep(remaining - time.Millisecond)
		a.spin()
	case remaining > 0:
		a.spin()
	case remaining < -resyncThreshold:
		// too far behind to catch up, pace from here on
		a.deadline = a.now()
		a.resyncs++
	}

	a.deadline = a.deadline.Add(a.target)
	a.frames++

	if a.frames%reportFrames == 0 {
		elapsed := a.now().Sub(a.started)
		slog.Debug("Frame pacing",
			"frames", a.frames,
			"fps", float64(a.frames)/elapsed.Seconds(),
			"resyncs", a.resyncs)
	}
}

func (a *AdaptiveLimiter) spin() {
	for a.now().Before(a.deadline) {
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.started = a.now()
	a.deadline = a.started
	a.frames = 0
	a.resyncs = 0
}
