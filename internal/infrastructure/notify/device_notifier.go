package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase/interfaces"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 128
)

type publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type statusMessage struct {
	Type        entities.OrderEventType `json:"type"`
	OrderID     string                  `json:"order_id"`
	Name        string                  `json:"name"`
	Status      entities.OrderStatus    `json:"status"`
	Total       int64                   `json:"total"`
	InvoiceCode string                  `json:"invoice_code,omitempty"`
	CheckoutURL string                  `json:"checkout_url,omitempty"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

type recipeMessage struct {
	OrderID string          `json:"order_id"`
	Name    string          `json:"name"`
	Resep   entities.Recipe `json:"resep"`
	Total   int64           `json:"total"`
}

// DeviceNotifier pushes lifecycle events to the device topics: every event goes to the
// status topic, and a finished order also sends its recipe to the dispenser.
// Notify only queues; Run does the publishing so a slow broker never holds up a request.
type DeviceNotifier struct {
	pub         publisher
	recipeTopic string
	statusTopic string
	queue       chan entities.OrderEvent
}

var _ interfaces.IOrderNotifier = (*DeviceNotifier)(nil)

func NewDeviceNotifier(pub publisher, recipeTopic, statusTopic string) *DeviceNotifier {
	return &DeviceNotifier{
		pub:         pub,
		recipeTopic: recipeTopic,
		statusTopic: statusTopic,
		queue:       make(chan entities.OrderEvent, queueSize),
	}
}

// Notify queues the event for Run. Events are dropped when the queue is full.
func (n *DeviceNotifier) Notify(_ context.Context, evt entities.OrderEvent) {
	evt.Order.Recipe = evt.Order.Recipe.Clone()
	select {
	case n.queue <- evt:
	default:
		log.Printf("[broker][notifier] queue full, dropping type=%s order_id=%s", evt.Type, evt.Order.ID)
	}
}

// Run publishes queued events one at a time until ctx is cancelled.
func (n *DeviceNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-n.queue:
			n.deliver(ctx, evt)
		}
	}
}

func (n *DeviceNotifier) deliver(ctx context.Context, evt entities.OrderEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	o := evt.Order
	n.publish(ctx, n.statusTopic, o.ID, statusMessage{
		Type:        evt.Type,
		OrderID:     o.ID,
		Name:        o.PatientName,
		Status:      o.Status,
		Total:       o.Total(),
		InvoiceCode: o.InvoiceCode,
		CheckoutURL: o.CheckoutURL,
		OccurredAt:  evt.OccurredAt,
	})

	if evt.Type == entities.OrderEventDone {
		n.publish(ctx, n.recipeTopic, o.ID, recipeMessage{
			OrderID: o.ID,
			Name:    o.PatientName,
			Resep:   o.Recipe,
			Total:   o.Total(),
		})
	}
}

func (n *DeviceNotifier) publish(ctx context.Context, topic, key string, msg any) {
	if topic == "" {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[broker][notifier] encode failed topic=%s order_id=%s err=%v", topic, key, err)
		return
	}
	if err := n.pub.Publish(ctx, topic, key, data); err != nil {
		log.Printf("[broker][notifier] publish failed topic=%s order_id=%s err=%v", topic, key, err)
	}
}

// Fanout delivers each event to every notifier in order.
type Fanout []interfaces.IOrderNotifier

var _ interfaces.IOrderNotifier = Fanout(nil)

func (f Fanout) Notify(ctx context.Context, evt entities.OrderEvent) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}
