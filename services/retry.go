package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutriplan/engine"
	"nutriplan/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxAttempts  = 3
	retryBackoff = 5 * time.Millisecond
)

// withRetry runs fn up to maxAttempts times while it reports
// engine.ErrConflict. Running out of attempts yields
// engine.ErrTemporarilyUnavailable.
func withRetry(ctx context.Context, op string, log *zap.Logger, m *observability.Metrics, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, engine.ErrConflict) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		m.Retry(op)
		log.Debug("store contention, retrying",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	m.Exhausted(op)
	log.Warn("store contention, giving up", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, engine.ErrTemporarilyUnavailable)
}

// classifyStoreError maps serialization failures, deadlocks and racing
// inserts onto engine.ErrConflict so withRetry picks them up.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", engine.ErrConflict, pgErr.Message)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", engine.ErrConflict, err)
	}
	return err
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, engine.ErrNotFound)
	}
	return err
}
