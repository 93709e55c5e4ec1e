package broker

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrNoKafkaBrokers = errors.New("KAFKA_BROKERS is empty")

// KafkaBroker keeps one writer per topic; readers join groupID.
type KafkaBroker struct {
	brokers []string
	groupID string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafkaBroker(brokersCSV, groupID string) (*KafkaBroker, error) {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, ErrNoKafkaBrokers
	}
	log.Printf("[broker][kafka] configured brokers=%v group=%s", brokers, groupID)
	return &KafkaBroker{brokers: brokers, groupID: groupID, writers: map[string]*kafka.Writer{}}, nil
}

func splitBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// kafkaTopic maps MQTT-style topic paths onto legal Kafka topic names.
func kafkaTopic(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

func (b *KafkaBroker) writer(topic string) *kafka.Writer {
	topic = kafkaTopic(topic)
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(b.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	b.writers[topic] = w
	return w
}

func (b *KafkaBroker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return b.writer(topic).WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload, Time: time.Now().UTC()})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, topic string, handle func([]byte)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    kafkaTopic(topic),
		GroupID:  b.groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()
	log.Printf("[broker][kafka] subscribed topic=%s group=%s", topic, b.groupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[broker][kafka] read error topic=%s err=%v", topic, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(2 * time.Second):
			}
			continue
		}
		handle(msg.Value)
	}
}

func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for topic, w := range b.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.writers, topic)
	}
	return errors.Join(errs...)
}
