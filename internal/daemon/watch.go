package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Watch refreshes day-dependent gauges on every tick and, with
// session.auto_penalty set, applies a due penalty. Blocks until ctx is cancelled.
func (d *Daemon) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

// tick runs one watch cycle.
func (d *Daemon) tick() {
	st := d.Store.Refresh()
	if !st.Penalty.CanApply {
		return
	}
	if !d.Config.Session.AutoPenalty {
		d.log.WithFields(logrus.Fields{
			"missed": st.Penalty.MissedTasks,
			"amount": st.Penalty.PenaltyToday,
		}).Debug("penalty due")
		return
	}
	if amount, ok := d.Store.ApplyPenalty(); ok {
		d.log.WithField("amount", amount).Info("auto penalty applied")
	}
}
