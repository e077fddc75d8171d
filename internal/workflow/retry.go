package workflow

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryDelay computes the wait before re-attempting a stage. Delay grows
// exponentially with the attempt number, is capped at the configured
// maximum, and carries jitter so a burst of same-cause failures does not
// requeue in lockstep.
func (m *Manager) retryDelay(attempt int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.backoffInitial
	bo.MaxInterval = m.backoffMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	bo.MaxElapsedTime = 0
	bo.Reset()

	delay := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = bo.NextBackOff()
	}
	if delay > m.backoffMax {
		delay = m.backoffMax
	}
	if delay <= 0 {
		delay = m.backoffInitial
	}
	return delay
}
