package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// rateLimitFloor is the minimum wait after a 429 regardless of what the
// provider's Retry-After header claims. Providers routinely understate it.
const rateLimitFloor = 60 * time.Second

// retrier drives the shared retry envelope for HTTP providers: rate limits
// honor Retry-After with a floor, everything else backs off exponentially.
type retrier struct {
	maxAttempts int
	sleep       func(context.Context, time.Duration) error
	logger      *slog.Logger
}

func newRetrier(maxAttempts int, logger *slog.Logger) retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return retrier{maxAttempts: maxAttempts, sleep: sleepCtx, logger: logger}
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
// Backoff waits can reach a minute, so a caller deadline must cut them short.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// do runs fn up to maxAttempts times. fn reports the HTTP status and the
// Retry-After header so the delay can be chosen per failure mode.
func (r retrier) do(ctx context.Context, fn func() (status int, retryAfter string, err error)) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		status, retryAfter, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == r.maxAttempts-1 {
			break
		}
		delay := r.delayFor(status, retryAfter, attempt)
		r.logger.Warn("llm.retry.wait",
			"attempt", attempt+1,
			"status", status,
			"delay", delay,
			"error", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (r retrier) delayFor(status int, retryAfter string, attempt int) time.Duration {
	if status == http.StatusTooManyRequests {
		wait := rateLimitFloor
		if secs, err := strconv.Atoi(retryAfter); err == nil {
			if d := time.Duration(secs) * time.Second; d > wait {
				wait = d
			}
		}
		return wait
	}
	return time.Duration(1<<attempt) * time.Second
}
