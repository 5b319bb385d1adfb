package harness

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// WaitPolicy controls how often and for how long a lookup is retried.
type WaitPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

var (
	// DefaultWaitPolicy applies to element waits and expectations.
	DefaultWaitPolicy = WaitPolicy{Interval: 400 * time.Millisecond, Timeout: 15 * time.Second}

	// DefaultLocatePolicy applies to finding a harness host on the page.
	DefaultLocatePolicy = WaitPolicy{Interval: 400 * time.Millisecond, Timeout: 5 * time.Second}
)

// WithTimeout returns a copy of p with the given timeout.
func (p WaitPolicy) WithTimeout(timeout time.Duration) WaitPolicy {
	p.Timeout = timeout
	return p
}

// Clock is the time source of the waiter.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Lookup is one attempt of a waited operation. ok=false means "not yet";
// a non-nil error is logged and treated the same, unless it is permanent.
type Lookup[T any] func(ctx context.Context) (result T, ok bool, err error)

// Action runs once on the result of the first successful lookup.
type Action[T any] func(ctx context.Context, result T) error

// Waiter carries everything a poll loop needs.
type Waiter struct {
	Policy WaitPolicy
	Clock  Clock
	Log    logrus.FieldLogger
}

// Poll calls lookup until it succeeds or the policy timeout elapses. The
// timeout is counted from before the first attempt. A first-attempt success
// returns without sleeping; a timeout shorter than the interval allows exactly
// one attempt. On failure Poll does not return before the timeout has passed.
func Poll[T any](ctx context.Context, w Waiter, lookup Lookup[T], action Action[T], message string) (T, error) {
	var zero T

	clock := w.Clock
	if clock == nil {
		clock = SystemClock
	}
	log := w.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	interval := w.Policy.Interval
	if interval <= 0 {
		interval = DefaultWaitPolicy.Interval
	}

	deadline := clock.Now().Add(w.Policy.Timeout)
	var last error
	for attempt := 1; ; attempt++ {
		result, ok, err := lookup(ctx)
		if err != nil && IsPermanent(err) {
			return zero, err
		}
		if err == nil && ok {
			if action != nil {
				if err := action(ctx, result); err != nil {
					return zero, err
				}
			}
			return result, nil
		}
		last = err
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Debug("lookup failed, retrying")
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		remaining := deadline.Sub(clock.Now())
		if remaining < interval {
			if remaining > 0 {
				if err := clock.Sleep(ctx, remaining); err != nil {
					return zero, err
				}
			}
			return zero, &TimeoutError{Message: message, Attempts: attempt, Last: last}
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return zero, err
		}
	}
}

// Until polls a boolean condition.
func Until(ctx context.Context, w Waiter, condition func(ctx context.Context) (bool, error), message string) error {
	_, err := Poll(ctx, w, func(ctx context.Context) (struct{}, bool, error) {
		ok, err := condition(ctx)
		return struct{}{}, ok, err
	}, nil, message)
	return err
}
