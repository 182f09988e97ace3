package services

import (
	"context"
	"time"

	"nutriplan/models"
	"nutriplan/observability"

	"go.uber.org/zap"
)

const sinkTimeout = 5 * time.Second

// CompletionSink receives completion events after they are committed.
type CompletionSink interface {
	Name() string
	PublishCompletion(ctx context.Context, ev models.CompletionEvent) error
}

// EventBus fans a committed CompletionEvent out to every sink. Sink
// failures are logged and counted; the completion itself stands.
type EventBus struct {
	sinks   []CompletionSink
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewEventBus(log *zap.Logger, m *observability.Metrics, sinks ...CompletionSink) *EventBus {
	return &EventBus{sinks: sinks, log: log.Named("events"), metrics: m}
}

func (b *EventBus) Publish(ctx context.Context, ev models.CompletionEvent) {
	if b == nil {
		return
	}
	// delivery outlives the request that triggered it
	ctx = context.WithoutCancel(ctx)
	for _, sink := range b.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.PublishCompletion(sctx, ev)
		cancel()

		b.metrics.Published(sink.Name(), err)
		if err != nil {
			b.log.Warn("completion sink failed",
				zap.String("sink", sink.Name()), zap.String("plan_id", ev.PlanID), zap.Error(err))
		}
	}
}
