package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase"
)

type subscriber interface {
	Subscribe(ctx context.Context, topic string, handle func(payload []byte)) error
}

type patientCompleter interface {
	CompleteByPatient(ctx context.Context, name string) (entities.Order, error)
}

// SignalListener turns "recipe ready" signals from the dispenser device into
// order completions.
type SignalListener struct {
	sub    subscriber
	orders patientCompleter
	topic  string
}

func NewSignalListener(sub subscriber, orders patientCompleter, topic string) *SignalListener {
	return &SignalListener{sub: sub, orders: orders, topic: topic}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (l *SignalListener) Run(ctx context.Context) error {
	if l.topic == "" {
		log.Printf("[signal][listener] no topic configured, listener disabled")
		<-ctx.Done()
		return nil
	}
	log.Printf("[signal][listener] subscribing topic=%s", l.topic)
	return l.sub.Subscribe(ctx, l.topic, func(payload []byte) {
		l.Handle(ctx, payload)
	})
}

func (l *SignalListener) Handle(ctx context.Context, payload []byte) {
	name := patientNameFromSignal(payload)
	if name == "" {
		log.Printf("[signal][listener] ignoring signal without patient name payload=%q", string(payload))
		return
	}

	o, err := l.orders.CompleteByPatient(ctx, name)
	switch {
	case errors.Is(err, usecase.ErrOrderNotFound):
		log.Printf("[signal][listener] no order for patient=%q", name)
	case err != nil:
		log.Printf("[signal][listener] completion failed patient=%q err=%v", name, err)
	default:
		log.Printf("[signal][listener] signal applied order_id=%s status=%s patient=%q", o.ID, o.Status, name)
	}
}

// patientNameFromSignal accepts {"name": ...}, {"nama": ...} or the bare name.
func patientNameFromSignal(payload []byte) string {
	raw := strings.TrimSpace(string(payload))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "{") {
		var body struct {
			Name string `json:"name"`
			Nama string `json:"nama"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return ""
		}
		if n := strings.TrimSpace(body.Name); n != "" {
			return n
		}
		return strings.TrimSpace(body.Nama)
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return strings.TrimSpace(s)
	}
	return raw
}
