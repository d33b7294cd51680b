package session

import (
	"context"
	"time"
)

// Runner drives a Machine from a ticker without a UI. All machine calls
// happen on the goroutine running Run. Plans run every step back to back.
type Runner struct {
	Machine  *Machine
	Interval time.Duration
	// OnTick, if set, sees the state after every tick and step change.
	OnTick func(State)
}

// Run starts the machine and ticks it until the session, or the whole plan,
// is over. Cancelling ctx stops and logs the running session and returns
// ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	m := r.Machine
	if !m.Start() && !m.running {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var advance <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			m.Stop(context.WithoutCancel(ctx))
			r.report()
			return ctx.Err()

		case <-ticker.C:
			res := m.Tick(ctx)
			r.report()
			if res.AdvanceAfter > 0 {
				advance = time.After(res.AdvanceAfter)
			} else if !m.running && advance == nil {
				return nil
			}

		case <-advance:
			advance = nil
			m.AdvanceStep(ctx)
			if m.plan == nil {
				r.report()
				return nil
			}
			m.Start()
			r.report()
		}
	}
}

func (r *Runner) report() {
	if r.OnTick != nil {
		r.OnTick(r.Machine.Snapshot())
	}
}
