package broker

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrMissingMQTTBrokerURL = errors.New("MQTT_BROKER_URL is empty")

const mqttTimeout = 10 * time.Second

type MQTTOptions struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// MQTTBroker publishes with QoS 1; the key is not part of MQTT and is only logged.
// Active subscriptions are replayed whenever the client (re)connects, since a clean
// session starts without any.
type MQTTBroker struct {
	client mqtt.Client

	mu   sync.Mutex
	subs map[string]mqtt.MessageHandler
}

func newMQTTBroker(client mqtt.Client) *MQTTBroker {
	return &MQTTBroker{client: client, subs: make(map[string]mqtt.MessageHandler)}
}

func NewMQTTBroker(o MQTTOptions) (*MQTTBroker, error) {
	if strings.TrimSpace(o.BrokerURL) == "" {
		return nil, ErrMissingMQTTBrokerURL
	}

	opts := mqtt.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[broker][mqtt] connection lost err=%v", err)
	})

	b := newMQTTBroker(nil)
	opts.SetOnConnectHandler(b.onConnect)
	b.client = mqtt.NewClient(opts)
	if err := wait(b.client.Connect()); err != nil {
		log.Printf("[broker][mqtt] connect failed broker=%s err=%v", o.BrokerURL, err)
		return nil, err
	}
	log.Printf("[broker][mqtt] connected broker=%s client_id=%s", o.BrokerURL, o.ClientID)
	return b, nil
}

// onConnect runs on the paho callback goroutine, so it must not wait on tokens.
func (b *MQTTBroker) onConnect(c mqtt.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, handler := range b.subs {
		tok := c.Subscribe(topic, 1, handler)
		go func(topic string) {
			if err := wait(tok); err != nil {
				log.Printf("[broker][mqtt] resubscribe failed topic=%s err=%v", topic, err)
				return
			}
			log.Printf("[broker][mqtt] resubscribed topic=%s", topic)
		}(topic)
	}
}

func (b *MQTTBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if err := waitContext(ctx, b.client.Publish(topic, 1, false, payload)); err != nil {
		log.Printf("[broker][mqtt] publish failed topic=%s key=%s err=%v", topic, key, err)
		return err
	}
	return nil
}

func (b *MQTTBroker) Subscribe(ctx context.Context, topic string, handle func([]byte)) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		handle(msg.Payload())
	}
	b.mu.Lock()
	b.subs[topic] = handler
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subs, topic)
		b.mu.Unlock()
	}()

	if err := wait(b.client.Subscribe(topic, 1, handler)); err != nil {
		return err
	}
	log.Printf("[broker][mqtt] subscribed topic=%s", topic)

	<-ctx.Done()
	if b.client.IsConnected() {
		_ = wait(b.client.Unsubscribe(topic))
	}
	return nil
}

func (b *MQTTBroker) Close() error {
	b.client.Disconnect(250)
	return nil
}

// waitContext is wait that also gives up when ctx ends.
func waitContext(ctx context.Context, t mqtt.Token) error {
	timer := time.NewTimer(mqttTimeout)
	defer timer.Stop()
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("mqtt operation timed out")
	}
}

func wait(t mqtt.Token) error {
	if !t.WaitTimeout(mqttTimeout) {
		return errors.New("mqtt operation timed out")
	}
	return t.Error()
}
