package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// retry executes a function with exponential backoff. It gives up early when
// ctx is done and returns the last error wrapped with the attempt count.
func retry(ctx context.Context, log *zap.Logger, attempts int, sleep time.Duration, f func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn("call failed, retrying", zap.Error(err), zap.Duration("wait", sleep), zap.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
