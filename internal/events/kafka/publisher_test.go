package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishImportCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	if err := p.PublishImportCompleted(context.Background(), 3, 2); err != nil {
		t.Fatalf("PublishImportCompleted: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}

	var got ImportCompleted
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Imported != 3 || got.Skipped != 2 || got.OccurredAt.IsZero() {
		t.Fatalf("unexpected event %+v", got)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Fatalf("event id is not a uuid: %q", got.ID)
	}
	if string(w.msgs[0].Key) != got.ID {
		t.Fatalf("message key %q != event id %q", w.msgs[0].Key, got.ID)
	}
}

func TestPublishImportCompletedError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{writer: &fakeWriter{err: boom}}
	if err := p.PublishImportCompleted(context.Background(), 0, 0); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestNewImportCompletedIDsAreUnique(t *testing.T) {
	a, b := NewImportCompleted(1, 0), NewImportCompleted(1, 0)
	if a.ID == b.ID {
		t.Fatalf("ids must differ")
	}
}

func TestNewPublisherDefaultsTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	w, ok := p.writer.(*kafka.Writer)
	if !ok || w.Topic != DefaultTopic {
		t.Fatalf("expected default topic, got %+v", p.writer)
	}
}
