package workers

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/cbodonnell/wager/pkg/log"
)

// Sweeper aborts idle sessions.
type Sweeper interface {
	Sweep(now time.Time) int
}

type SweepWorker struct {
	sweeper  Sweeper
	clock    clock.Clock
	interval time.Duration
}

type NewSweepWorkerOptions struct {
	Sweeper Sweeper
	// Clock defaults to the wall clock.
	Clock    clock.Clock
	Interval time.Duration
}

// NewSweepWorker creates a new SweepWorker.
// The worker periodically expires sessions that have been idle for
// longer than the registry's expiry window.
func NewSweepWorker(opts NewSweepWorkerOptions) *SweepWorker {
	w := &SweepWorker{
		sweeper:  opts.Sweeper,
		clock:    opts.Clock,
		interval: opts.Interval,
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	return w
}

// Start sweeps on every interval until ctx is done.
func (w *SweepWorker) Start(ctx context.Context) error {
	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if swept := w.sweeper.Sweep(t); swept > 0 {
				log.Info("Expired %d idle sessions", swept)
			}
		}
	}
}
