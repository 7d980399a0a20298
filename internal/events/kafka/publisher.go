package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"saldo/internal/log"
)

// DefaultTopic receives ImportCompleted events.
const DefaultTopic = "saldo.imports"

// ImportCompleted is published after every import, including imports that
// stored nothing.
type ImportCompleted struct {
	ID         string    `json:"id"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewImportCompleted(imported, skipped int) ImportCompleted {
	return ImportCompleted{
		ID:         uuid.New().String(),
		Imported:   imported,
		Skipped:    skipped,
		OccurredAt: time.Now().UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// PublishImportCompleted emits an ImportCompleted event keyed by its id.
func (p *Publisher) PublishImportCompleted(ctx context.Context, imported, skipped int) error {
	event := NewImportCompleted(imported, skipped)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal import event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: data,
		Time:  event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("write import event: %w", err)
	}

	log.For(log.ComponentKafka).InfoContext(ctx, "Published import completed event",
		log.FieldEventID, event.ID,
		log.FieldImported, imported,
		log.FieldSkipped, skipped)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
