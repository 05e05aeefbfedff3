package download

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Policy bounds how often and how patiently a transient failure is retried.
type Policy struct {
	MaxAttempts int           // total attempts, counting the first
	BaseDelay   time.Duration // pause before the second attempt
	MaxDelay    time.Duration // backoff ceiling; 0 means uncapped
}

// DefaultPolicy suits the rate limits of the media hosts this tool talks to.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs fn until it succeeds, fails permanently, exhausts the attempt
// budget, or ctx finishes. The pause between attempts doubles each time.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Debugf("retrying in %v: attempt=%d/%d err=%v", delay, i+1, attempts, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}

	return err
}
