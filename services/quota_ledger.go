package services

import (
	"context"
	"time"

	"nutriplan/engine"
	"nutriplan/observability"

	"go.uber.org/zap"
)

// QuotaLedger answers check-and-consume requests against a QuotaStore.
type QuotaLedger struct {
	store   QuotaStore
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewQuotaLedger(store QuotaStore, log *zap.Logger, m *observability.Metrics) *QuotaLedger {
	return &QuotaLedger{store: store, log: log.Named("quota"), metrics: m, now: time.Now}
}

// CheckAndConsume checks the limit and consumes in one atomic step. A
// rejection is a normal result with Allowed=false, not an error.
func (l *QuotaLedger) CheckAndConsume(ctx context.Context, req engine.QuotaRequest) (engine.QuotaStatus, error) {
	if err := req.Validate(); err != nil {
		return engine.QuotaStatus{}, err
	}

	var status engine.QuotaStatus
	key := QuotaKey{UserID: req.UserID, Resource: req.Resource}
	err := withRetry(ctx, "quota", l.log, l.metrics, func() error {
		return l.store.Mutate(ctx, key, func(state engine.QuotaCounterState, exists bool) (engine.QuotaCounterState, bool) {
			next, st := engine.ApplyQuota(state, exists, req, l.now())
			status = st
			if !exists {
				// reads and rejections do not create counters
				return next, st.Allowed && req.Amount > 0
			}
			return next, !next.Equal(state)
		})
	})
	if err != nil {
		return engine.QuotaStatus{}, err
	}

	fields := []zap.Field{
		zap.Uint("user_id", req.UserID),
		zap.String("resource", string(req.Resource)),
		zap.Int64("amount", req.Amount),
		zap.Int64("current", status.Current),
		zap.Int64("limit", status.Limit),
	}
	if status.PeriodReset {
		l.metrics.QuotaReset(string(req.Resource))
		l.log.Info("quota period reset", fields...)
	}
	if req.Amount > 0 {
		l.metrics.QuotaDecision(string(req.Resource), status.Allowed)
		if !status.Allowed {
			l.log.Info("quota rejected", fields...)
		}
	}
	return status, nil
}

// Status reports the counter without consuming anything.
func (l *QuotaLedger) Status(ctx context.Context, userID uint, resource engine.ResourceType, limit int64) (engine.QuotaStatus, error) {
	return l.CheckAndConsume(ctx, engine.QuotaRequest{UserID: userID, Resource: resource, Limit: limit})
}

// Refund returns units taken by an earlier allowed request whose work then
// failed. charged is the status that request returned.
func (l *QuotaLedger) Refund(ctx context.Context, userID uint, charged engine.QuotaStatus, amount int64) error {
	if !charged.Allowed || amount <= 0 || charged.Limit == engine.UnlimitedQuota {
		return nil
	}
	key := QuotaKey{UserID: userID, Resource: charged.Resource}
	err := withRetry(ctx, "quota", l.log, l.metrics, func() error {
		return l.store.Mutate(ctx, key, func(state engine.QuotaCounterState, exists bool) (engine.QuotaCounterState, bool) {
			if !exists {
				return state, false
			}
			return engine.RefundQuota(state, amount, charged.ResetAt)
		})
	})
	if err != nil {
		return err
	}
	l.log.Info("quota refunded",
		zap.Uint("user_id", userID), zap.String("resource", string(charged.Resource)), zap.Int64("amount", amount))
	return nil
}
