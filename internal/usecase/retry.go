package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"
)

// RetryPolicy is an exponential backoff schedule: attempt i waits
// min(BaseDelay·2^i, MaxDelay) before attempt i+1.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows 3 attempts with 2s base and 10s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
}

// WithSleep returns a copy of p that waits with sleep instead of a timer.
func (p RetryPolicy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryPolicy {
	p.sleep = sleep
	return p
}

// Validate checks the policy.
func (p RetryPolicy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", p.Attempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry delays must be non-negative")
	}
	return nil
}

// Delay returns the wait after the 0-based attempt i.
func (p RetryPolicy) Delay(i int) time.Duration {
	d := p.BaseDelay
	for range i {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, the attempts run out, ctx is done or fn
// returns a validation error. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for i := range attempts {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrValidation) || ctx.Err() != nil {
			return err
		}
		if i == attempts-1 {
			break
		}

		delay := p.Delay(i)
		metrics.LLMRetriesTotal.Inc()
		logger.Warn("retrying_after_failure",
			slog.String("op", op),
			slog.Int("attempt", i+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
