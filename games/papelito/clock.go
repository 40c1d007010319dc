package papelito

import (
	"context"
	"time"
)

// TickInterval is how often a running turn clock loses a second.
const TickInterval = time.Second

// Clock is the countdown of the turn in progress. Epoch changes whenever the
// clock is restarted or stopped, so ticks scheduled for an older epoch can be
// recognised and dropped.
type Clock struct {
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
	Expired   bool   `json:"expired"`
	Epoch     uint64 `json:"epoch"`
}

func (c *Clock) reset(seconds int) {
	c.Remaining = seconds
	c.Running = false
	c.Expired = false
	c.Epoch++
}

func (c *Clock) stop() {
	c.Running = false
	c.Epoch++
}

// RunCountdown sends epoch on ticks once per interval until ctx is done.
// The receiver decides whether the tick still applies.
func RunCountdown(ctx context.Context, interval time.Duration, epoch uint64, ticks chan<- uint64) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case ticks <- epoch:
			case <-ctx.Done():
				return
			}
		}
	}
}
