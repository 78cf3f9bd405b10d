// Package kafka delivers anomaly stream events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"rollcall/internal/anomaly/stream"
)

// Sink produces anomaly events to one topic, keyed by anomaly ID so replays
// of the same record land in the same partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects to the brokers and ensures the topic exists. The single
// partition default is fine for review tooling; operators can pre-create the
// topic with more.
func NewSink(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	sink := &Sink{client: client, topic: topic}
	if err := sink.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return sink, nil
}

func (s *Sink) ensureTopic(ctx context.Context) error {
	admin := kadm.NewClient(s.client)
	responses, err := admin.CreateTopics(ctx, 1, 1, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", s.topic, response.Err)
		}
	}
	return nil
}

// Send produces one event synchronously. The caller (the stream worker) is
// already off the request path, so waiting for the ack here is fine.
func (s *Sink) Send(ctx context.Context, event stream.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal anomaly event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce anomaly event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
