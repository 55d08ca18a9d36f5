package poll

import (
	"time"

	"codeberg.org/mutker/lhmosc/internal/sensor"
)

// DefaultRetryInterval is the cooldown after a failed fetch.
const DefaultRetryInterval = 5 * time.Second

// State is everything the poll loop carries from one tick to the next.
type State struct {
	LastFailure time.Time
	SourceAlive bool
	LastPoll    time.Time
	Readings    sensor.Readings
}

// NewState returns a state whose first tick is allowed to fetch.
func NewState(now time.Time, retry time.Duration) State {
	return State{
		LastFailure: now.Add(-2 * retry),
		Readings:    sensor.UnavailableReadings(),
	}
}

// Due reports whether a fetch may be attempted at now.
func (s State) Due(now time.Time, retry time.Duration) bool {
	return now.Sub(s.LastFailure) >= retry
}

// RetryIn returns how long until the next fetch is allowed, never negative.
func (s State) RetryIn(now time.Time, retry time.Duration) time.Duration {
	return max(retry-now.Sub(s.LastFailure), 0)
}
