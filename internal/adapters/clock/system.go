package clock

import (
	"context"
	"time"

	"github.com/trebuchet-org/rollout/internal/usecase"
)

// System is the wall clock
type System struct{}

// NewSystem creates the wall clock
func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done
func (System) Sleep(ctx context.Context, d time.Duration) error {
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

var _ usecase.Clock = System{}
