package timing

import "time"

// TickerLimiter paces frames on a time.Ticker. Ticks missed while a frame
// overran are dropped, so a slow frame never causes a burst of fast ones.
type TickerLimiter struct {
	ticker *time.Ticker
	period time.Duration
}

func NewTickerLimiter(refreshRate int) *TickerLimiter {
	period := FrameDuration(refreshRate)
	return &TickerLimiter{
		ticker: time.NewTicker(period),
		period: period,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

// Stop releases the ticker. The limiter must not be used afterwards.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
