package worker

import "time"

func (w *SyncWorker) SetNow(fn func() time.Time) {
	w.nowFn = fn
}
