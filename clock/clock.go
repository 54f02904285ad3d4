package clock

import (
	"context"
	"time"
)

// Clock is the source of wall-clock time for the daemons. Sleep returns early
// with ctx.Err() when the context is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type Real struct {
	location *time.Location
}

func NewReal(location *time.Location) *Real {
	if location == nil {
		location = time.Local
	}
	return &Real{location: location}
}

func (r *Real) Now() time.Time {
	return time.Now().In(r.location)
}

func (r *Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
