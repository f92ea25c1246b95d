package uriutils

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/skylander86/uriutils/interfaces"
)

// WaitExists polls for the existence of a resource until it appears or
// the timeout elapses. It returns true as soon as a check succeeds, and
// false once the timeout is spent; a spent timeout is a normal outcome,
// not an error.
//
// A timeout of zero performs exactly one check with no waiting. The poll
// interval is clamped to the remaining budget so the call returns at or
// before the deadline, with one final check at the deadline itself. A
// non-positive interval defaults to one second. Cancellation of ctx is
// honored at every sleep boundary.
//
// A failing existence check is retried a small bounded number of times
// with exponential backoff within the current tick; a persistent backend
// error then propagates rather than being silently retried forever.
func (f *FS) WaitExists(ctx context.Context, uri string, timeout, interval time.Duration) (bool, error) {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := f.clock.Now().Add(timeout)

	for {
		found, err := f.existsWithRetry(ctx, uri)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}

		if timeout <= 0 {
			return false, nil
		}

		remaining := deadline.Sub(f.clock.Now())
		if remaining <= 0 {
			return false, nil
		}

		sleep := interval
		if sleep > remaining {
			sleep = remaining
		}

		timer := f.clock.Timer(sleep)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		}
	}
}

// ExistsAll checks the existence of several URIs concurrently and returns
// the result per URI. The first backend error cancels the remaining
// checks and propagates.
func (f *FS) ExistsAll(ctx context.Context, uris []string) (map[string]bool, error) {
	results := make([]bool, len(uris))

	p := pool.New().WithErrors().WithContext(ctx)
	for i, uri := range uris {
		p.Go(func(ctx context.Context) error {
			found, err := f.Exists(ctx, uri)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(uris))
	for i, uri := range uris {
		out[uri] = results[i]
	}
	return out, nil
}

// WaitExistsAll waits concurrently until every URI exists, sharing one
// timeout. It returns true only if all resources appeared in time.
func (f *FS) WaitExistsAll(ctx context.Context, uris []string, timeout, interval time.Duration) (bool, error) {
	found := make([]bool, len(uris))

	p := pool.New().WithErrors().WithContext(ctx)
	for i, uri := range uris {
		p.Go(func(ctx context.Context) error {
			ok, err := f.WaitExists(ctx, uri, timeout, interval)
			if err != nil {
				return err
			}
			found[i] = ok
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return false, err
	}

	for _, ok := range found {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// existsWithRetry performs one existence check, retrying transient
// backend errors up to the configured bound. Scheme, mode and URI errors
// are permanent and never retried.
func (f *FS) existsWithRetry(ctx context.Context, uri string) (bool, error) {
	var found bool

	op := func() error {
		ok, err := f.Exists(ctx, uri)
		if err != nil {
			if isPermanentError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		found = ok
		return nil
	}

	notify := func(err error, next time.Duration) {
		f.log.Warn("Existence check failed, retrying",
			slog.String("uri", uri),
			slog.Duration("next", next),
			"err", err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 100 * time.Millisecond

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, f.transientRetries), ctx)
	if err := backoff.RetryNotifyWithTimer(op, policy, notify, newClockTimer(f.clock)); err != nil {
		return false, err
	}
	return found, nil
}

func isPermanentError(err error) bool {
	return errors.Is(err, interfaces.ErrInvalidURI) ||
		errors.Is(err, interfaces.ErrUnsupportedScheme) ||
		errors.Is(err, interfaces.ErrUnsupportedMode)
}

// clockTimer adapts the injected clock to the backoff timer contract so
// that retry waits are simulated time in tests, not real sleeps.
type clockTimer struct {
	clk   clock.Clock
	timer *clock.Timer
}

func newClockTimer(clk clock.Clock) *clockTimer {
	return &clockTimer{clk: clk}
}

func (t *clockTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = t.clk.Timer(d)
	} else {
		t.timer.Reset(d)
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
