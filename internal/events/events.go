// Package events announces submitted purchase orders to downstream systems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"posales/backend/internal/domain"
)

type Publisher interface {
	PublishSubmitted(ctx context.Context, event domain.POSubmittedEvent) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishSubmitted(_ context.Context, _ domain.POSubmittedEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per submitted order, keyed by PO number.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher takes a comma-separated broker list.
func NewKafkaPublisher(brokers string, topic string) *KafkaPublisher {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
	}}
}

func newKafkaPublisherWith(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) PublishSubmitted(ctx context.Context, event domain.POSubmittedEvent) error {
	b, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.PONumber),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte("po.submitted")}},
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
