package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

func ExponentialBackoff(policy Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		exp.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		exp.MaxInterval = policy.MaxInterval
	}
	if policy.Multiplier > 0 {
		exp.Multiplier = policy.Multiplier
	}
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// Reconnect paces retries of a failing connection-level operation. A
// successful operation resets the delay back to the initial interval.
type Reconnect struct {
	b backoff.BackOff
}

func NewReconnect(policy Policy) *Reconnect {
	return &Reconnect{b: ExponentialBackoff(policy)}
}

// Wait sleeps for the next backoff interval or until ctx is done.
func (r *Reconnect) Wait(done <-chan struct{}) {
	delay := r.b.NextBackOff()
	if delay == backoff.Stop {
		delay = time.Second
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-done:
	}
}

func (r *Reconnect) Reset() {
	r.b.Reset()
}
