package broker

import (
	"context"
	"fmt"
	"log"
	"strings"

	"tabib_ai/internal/config"
)

// Broker moves small JSON payloads between the service and the devices.
type Broker interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	// Subscribe blocks, calling handle for every message, until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handle func(payload []byte)) error
	Close() error
}

// New picks the implementation named by NOTIFY_DRIVER. An empty driver logs instead of publishing.
func New(cfg config.NotifyConfig) (Broker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "log", "none":
		log.Printf("[broker][factory] using log-only broker")
		return NewLogBroker(), nil
	case "kafka":
		return NewKafkaBroker(cfg.KafkaBrokers, cfg.SignalGroupID)
	case "mqtt":
		return NewMQTTBroker(MQTTOptions{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
		})
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}

// LogBroker only writes published payloads to the log.
type LogBroker struct{}

func NewLogBroker() *LogBroker {
	return &LogBroker{}
}

func (LogBroker) Publish(_ context.Context, topic, key string, payload []byte) error {
	log.Printf("[broker][log] publish topic=%s key=%s payload=%s", topic, key, payload)
	return nil
}

func (LogBroker) Subscribe(ctx context.Context, topic string, _ func([]byte)) error {
	log.Printf("[broker][log] subscribe is a no-op topic=%s", topic)
	<-ctx.Done()
	return nil
}

func (LogBroker) Close() error {
	return nil
}
