package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/usecase"
)

type fakeCompleter struct {
	names []string
	err   error
}

func (f *fakeCompleter) CompleteByPatient(_ context.Context, name string) (entities.Order, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return entities.Order{}, f.err
	}
	return entities.Order{ID: "ord-1", PatientName: name, Status: entities.OrderStatusDone}, nil
}

type fakeSubscriber struct {
	topic    string
	payloads [][]byte
	err      error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, topic string, handle func([]byte)) error {
	f.topic = topic
	for _, p := range f.payloads {
		handle(p)
	}
	return f.err
}

func TestPatientNameFromSignal(t *testing.T) {
	cases := map[string]string{
		`{"name": "Siti"}`:       "Siti",
		`{"nama": " Budi "}`:     "Budi",
		`{"name":"","nama":"A"}`: "A",
		`"Ani"`:                  "Ani",
		"  Dewi \n":              "Dewi",
		`{"other": 1}`:           "",
		`{broken`:                "",
		"":                       "",
	}
	for in, want := range cases {
		if got := patientNameFromSignal([]byte(in)); got != want {
			t.Errorf("patientNameFromSignal(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSignalListener_RunCompletesEachSignal(t *testing.T) {
	sub := &fakeSubscriber{payloads: [][]byte{[]byte(`{"name":"Siti"}`), []byte(""), []byte("Budi")}}
	orders := &fakeCompleter{}
	l := NewSignalListener(sub, orders, "tabib/signal")

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sub.topic != "tabib/signal" {
		t.Fatalf("subscribed to %q", sub.topic)
	}
	if len(orders.names) != 2 || orders.names[0] != "Siti" || orders.names[1] != "Budi" {
		t.Fatalf("unexpected completions %v", orders.names)
	}
}

func TestSignalListener_RunPropagatesSubscribeError(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("broker down")}
	l := NewSignalListener(sub, &fakeCompleter{}, "tabib/signal")

	if err := l.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSignalListener_HandleSwallowsUseCaseErrors(t *testing.T) {
	orders := &fakeCompleter{err: usecase.ErrOrderNotFound}
	l := NewSignalListener(&fakeSubscriber{}, orders, "tabib/signal")

	l.Handle(context.Background(), []byte(`{"name":"Ghost"}`))

	if len(orders.names) != 1 {
		t.Fatalf("expected one completion attempt, got %v", orders.names)
	}
}

func TestSignalListener_NoTopicWaitsForCancel(t *testing.T) {
	sub := &fakeSubscriber{}
	l := NewSignalListener(sub, &fakeCompleter{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("listener did not stop")
	}
	if sub.topic != "" {
		t.Fatalf("should not subscribe without topic")
	}
}
