package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publisher announces newly stored news items to downstream consumers
type Publisher interface {
	PublishCollected(ctx context.Context, items ...*models.NewsItem) error
	Close() error
}

// Noop drops every event
type Noop struct{}

func (Noop) PublishCollected(ctx context.Context, items ...*models.NewsItem) error { return nil }
func (Noop) Close() error                                                          { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per item, keyed by item id
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// New returns a Kafka publisher, or Noop when no brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return Noop{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			MaxAttempts:            3,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

// BuildMessage encodes item as a Kafka message.
func BuildMessage(item *models.NewsItem) (kafka.Message, error) {
	value, err := json.Marshal(item)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal news item: %w", err)
	}
	return kafka.Message{
		Key:   []byte(item.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("news_collected")},
			{Key: "category", Value: []byte(item.Category)},
			{Key: "trust_grade", Value: []byte(item.TrustGrade)},
		},
		Time: item.CreatedAt,
	}, nil
}

func (k *KafkaPublisher) PublishCollected(ctx context.Context, items ...*models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(items))
	for _, item := range items {
		msg, err := BuildMessage(item)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), k.topic, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
