package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/sgengine/internal/adapters/repository"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
)

// retry runs fn until it succeeds, fails with anything other than
// repository.ErrDataUnavailable, or fetchRetries retries are spent.
func (s *Service) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.fetchRetries)), ctx)

	return backoff.RetryNotify(func() error {
		err := fn(ctx)
		if err == nil || errors.Is(err, repository.ErrDataUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, wait time.Duration) {
		metrics.RecordRepositoryRetry()
		s.logger.Warn(ctx, "data unavailable, retrying",
			logger.String("op", op),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	})
}

// fetch is retry for calls returning a value.
func fetch[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := s.retry(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
