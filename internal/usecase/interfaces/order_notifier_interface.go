package interfaces

import (
	"context"

	"tabib_ai/internal/domain/entities"
)

// IOrderNotifier receives lifecycle events after they are persisted.
// Delivery is fire-and-forget: implementations log their own failures.
type IOrderNotifier interface {
	Notify(ctx context.Context, evt entities.OrderEvent)
}
