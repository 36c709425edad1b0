package billing

import (
	"context"

	"github.com/tiller/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// writeHooks runs after a billing write has been committed: the domain
// events are published and the dashboard cache is dropped. Neither step can
// fail the write that already happened.
type writeHooks struct {
	publisher shared.EventPublisher
	cache     DashboardCache
	logger    *zap.Logger
}

func (h *writeHooks) committed(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
		}
	}
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		if h.publisher != nil && len(events) > 0 {
			if err := h.publisher.Publish(ctx, events...); err != nil {
				h.logger.Error("Failed to publish domain events",
					zap.Int("count", len(events)),
					zap.Error(err))
			}
		}
		agg.ClearDomainEvents()
	}
}
