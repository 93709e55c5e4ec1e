package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (pendingToken) Error() error                   { return nil }

type payloadMessage struct {
	mqtt.Message
	payload []byte
}

func (m payloadMessage) Payload() []byte { return m.payload }

type fakeMQTTClient struct {
	mqtt.Client

	mu       sync.Mutex
	handlers map[string]mqtt.MessageHandler
	subCalls map[string]int
	publish  mqtt.Token
}

func newFakeMQTTClient() *fakeMQTTClient {
	return &fakeMQTTClient{
		handlers: make(map[string]mqtt.MessageHandler),
		subCalls: make(map[string]int),
		publish:  doneToken{},
	}
}

func (c *fakeMQTTClient) IsConnected() bool { return true }

func (c *fakeMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.subCalls[topic]++
	return doneToken{}
}

func (c *fakeMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.handlers, topic)
	}
	return doneToken{}
}

func (c *fakeMQTTClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	return c.publish
}

// dropSession forgets every subscription, like a reconnect with a clean session.
func (c *fakeMQTTClient) dropSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = make(map[string]mqtt.MessageHandler)
}

func (c *fakeMQTTClient) deliver(topic string, payload []byte) bool {
	c.mu.Lock()
	h, ok := c.handlers[topic]
	c.mu.Unlock()
	if ok {
		h(c, payloadMessage{payload: payload})
	}
	return ok
}

func (c *fakeMQTTClient) subscribeCount(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subCalls[topic]
}

func TestMQTTBroker_ResubscribesAfterReconnect(t *testing.T) {
	client := newFakeMQTTClient()
	b := newMQTTBroker(client)

	got := make(chan string, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Subscribe(ctx, "tabib/signal", func(p []byte) { got <- string(p) })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for client.subscribeCount("tabib/signal") != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("subscribe never issued")
		}
		time.Sleep(5 * time.Millisecond)
	}

	client.dropSession()
	if client.deliver("tabib/signal", []byte("lost")) {
		t.Fatalf("expected no handler after session drop")
	}

	b.onConnect(client)
	if client.subscribeCount("tabib/signal") != 2 {
		t.Fatalf("expected resubscribe, got %d subscribe calls", client.subscribeCount("tabib/signal"))
	}
	if !client.deliver("tabib/signal", []byte("ord-1")) {
		t.Fatalf("expected handler after reconnect")
	}
	select {
	case p := <-got:
		if p != "ord-1" {
			t.Fatalf("unexpected payload %q", p)
		}
	case <-time.After(time.Second):
		t.Fatalf("message not routed to handler")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.onConnect(client)
	if client.subscribeCount("tabib/signal") != 2 {
		t.Fatalf("ended subscription should not be replayed")
	}
}

func TestMQTTBroker_PublishHonoursContext(t *testing.T) {
	client := newFakeMQTTClient()
	client.publish = pendingToken{}
	b := newMQTTBroker(client)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := b.Publish(ctx, "tabib/status", "ord-1", []byte("{}")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish ignored the context for %s", elapsed)
	}
}

func TestMQTTBroker_PublishReportsTokenError(t *testing.T) {
	client := newFakeMQTTClient()
	client.publish = doneToken{err: errors.New("not connected")}
	b := newMQTTBroker(client)

	if err := b.Publish(context.Background(), "tabib/status", "ord-1", nil); err == nil || err.Error() != "not connected" {
		t.Fatalf("expected token error, got %v", err)
	}
}
