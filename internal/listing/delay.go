package listing

import (
	"context"
	"math/rand/v2"
	"time"
)

// UXDelay is an optional artificial pause that keeps a loading state on
// screen long enough to notice. The zero value disables it.
type UXDelay struct {
	Min time.Duration
	Max time.Duration
}

func (d UXDelay) Enabled() bool { return d.Max > 0 }

// Duration picks a uniformly random pause in [Min, Max].
func (d UXDelay) Duration() time.Duration {
	if !d.Enabled() {
		return 0
	}
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int64N(int64(d.Max-d.Min)+1))
}

// Wait sleeps for Duration or until ctx is done.
func (d UXDelay) Wait(ctx context.Context) error {
	dur := d.Duration()
	if dur <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(dur)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
