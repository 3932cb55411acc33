package httpapi

import (
	"context"
	"errors"
	"time"
)

// livenessProbeTimeout bounds the trivial scheduler round trip. If the
// runtime cannot complete a 1ms sleep on a fresh goroutine within this
// window, the process liveness contract is considered broken.
var livenessProbeTimeout = 250 * time.Millisecond

// livenessProbe performs a trivial suspend-and-resume to prove the
// scheduler is still responsive.
func livenessProbe(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		time.Sleep(time.Millisecond)
		close(done)
	}()
	timer := time.NewTimer(livenessProbeTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return errors.New("scheduler round trip exceeded deadline")
	case <-ctx.Done():
		return ctx.Err()
	}
}
