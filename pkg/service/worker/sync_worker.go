package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

// SyncFunc runs one sync over meetings created after since
type SyncFunc func(ctx context.Context, since time.Time) error

// SyncWorker runs scheduled syncs in the background. Each run fetches meetings of the last
// lookback window so that a missed or failed run is covered by the next one.
//
// Multiple instances are serialized by the sync lock, not by the worker.
type SyncWorker struct {
	sync     SyncFunc
	interval time.Duration
	lookback time.Duration
	nowFn    func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSyncWorker creates a worker calling fn every interval
func NewSyncWorker(fn SyncFunc, interval, lookback time.Duration) (*SyncWorker, error) {
	if interval <= 0 {
		return nil, goerr.New("sync interval must be positive", goerr.V("interval", interval))
	}
	if lookback < interval {
		return nil, goerr.New("sync lookback must cover the interval",
			goerr.V("interval", interval), goerr.V("lookback", lookback))
	}

	return &SyncWorker{
		sync:     fn,
		interval: interval,
		lookback: lookback,
		nowFn:    time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins the background loop. The first run starts immediately without blocking the caller.
func (w *SyncWorker) Start(ctx context.Context) error {
	logging.Default().Info("Sync worker starting",
		"interval", w.interval.String(),
		"lookback", w.lookback.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the running sync to finish
func (w *SyncWorker) Stop() {
	logging.Default().Info("Sync worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Sync worker stopped")
}

// Done is closed when the loop has exited
func (w *SyncWorker) Done() <-chan struct{} {
	return w.doneCh
}

func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)

		case <-w.stopCh:
			logging.Default().Info("Sync worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Sync worker context cancelled")
			return
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	since := w.nowFn().Add(-w.lookback)
	if err := w.sync(ctx, since); err != nil {
		logging.Default().Error("Scheduled sync failed (will retry next interval)",
			"error", err.Error())
	}
}
