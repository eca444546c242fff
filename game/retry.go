package game

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds how often a single API call is re-attempted and how long
// the jittered pause between attempts lasts.
type RetryPolicy struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		MinDelay: 1 * time.Second,
		MaxDelay: 3 * time.Second,
	}
}

// Backoff draws a uniform delay within the policy bounds.
func (p RetryPolicy) Backoff() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}
	return p.MinDelay + time.Duration(rand.Int63n(int64(p.MaxDelay-p.MinDelay)))
}

// SleepFunc pauses for d or returns early with the context error. Tests
// substitute a recording fake.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
