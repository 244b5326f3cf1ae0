package bitso

import (
	"context"
	"shib-price-bot/internal/types"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often a transient upstream failure is retried.
// The wait before attempt n (n >= 2) is Backoff*(n-1).
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn until it succeeds, returns a non-transient error, the attempts
// are exhausted or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := p.Backoff * time.Duration(attempt-1)
			log.Debugf("retrying in %s (attempt %d/%d): %v", wait, attempt, attempts, err)
			select {
			case <-ctx.Done():
				return errors.Wrapf(types.ErrUpstream, "gave up after %d attempts: %v", attempt-1, ctx.Err())
			case <-time.After(wait):
			}
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, types.ErrUpstream) {
			return err
		}
	}
	return err
}
