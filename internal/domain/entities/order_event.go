package entities

import "time"

type OrderEventType string

const (
	OrderEventCreated         OrderEventType = "order.created"
	OrderEventDone            OrderEventType = "order.done"
	OrderEventAwaitingPayment OrderEventType = "order.awaiting_payment"
	OrderEventPaid            OrderEventType = "order.paid"
)

// OrderEvent is emitted after every persisted lifecycle transition.
type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	Order      Order          `json:"order"`
	OccurredAt time.Time      `json:"occurred_at"`
}
