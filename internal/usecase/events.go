package usecase

import (
	"context"

	"tabib_ai/internal/clock"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase/interfaces"
)

func emit(ctx context.Context, n interfaces.IOrderNotifier, clk clock.Clock, typ entities.OrderEventType, o entities.Order) {
	if n == nil {
		return
	}
	n.Notify(ctx, entities.OrderEvent{Type: typ, Order: o, OccurredAt: clk.Now()})
}
