package interfaces

import (
	"context"
	"time"

	"tabib_ai/internal/domain/entities"
)

// IOrderRepository abstracts DynamoDB persistence for Order.
//
// Conventions:
//   - lookups return a zero Order (ID == "") when nothing matches
//   - Transition / AttachPayment are conditional writes; when the stored status is not an
//     allowed source they return a zero Order and no error, so callers can reload and decide

type IOrderRepository interface {
	Create(ctx context.Context, o entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetLatestByPatient(ctx context.Context, patientKey string) (entities.Order, error)
	GetByInvoiceCode(ctx context.Context, invoiceCode string) (entities.Order, error)
	ListByStatus(ctx context.Context, status entities.OrderStatus, limit int) ([]entities.Order, error)
	Transition(ctx context.Context, id string, to entities.OrderStatus, at time.Time) (entities.Order, error)
	AttachPayment(ctx context.Context, id string, invoiceCode string, checkoutURL string, price entities.PriceBreakdown, at time.Time) (entities.Order, error)
}
