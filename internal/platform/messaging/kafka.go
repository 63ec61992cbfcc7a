package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// Kafka is the broker-backed bus adapter. The writer hashes the message key to
// pick a partition, which is what preserves per-subject ordering; readers join
// a consumer group and commit offsets only after the handler succeeds.
type Kafka struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, key string, value []byte) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		k.logger.Error("kafka publish failed",
			"event", "kafka_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"key", key,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, topic string, group string, handler Handler) error {
	if group == "" {
		return errors.New("consumer group is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: group,
	})

	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	go k.consume(ctx, reader, topic, group, handler)
	return nil
}

func (k *Kafka) consume(ctx context.Context, reader *kafka.Reader, topic, group string, handler Handler) {
	k.logger.Info("kafka consumer started",
		"event", "kafka_consumer_started",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", group,
	)

	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			k.logger.Error("kafka fetch failed",
				"event", "kafka_fetch_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			time.Sleep(time.Second)
			continue
		}

		// Redeliver in place on failure: advancing past an unacknowledged
		// message would break both the at-least-once contract and the
		// per-partition ordering guarantee. Callers bound the retries (and
		// dead-letter the event) inside the handler.
		for {
			err := handler(ctx, message.Key, message.Value)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			k.logger.Error("kafka handler failed",
				"event", "kafka_handler_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"offset", message.Offset,
				"error", err.Error(),
			)
			time.Sleep(time.Second)
		}

		if err := reader.CommitMessages(ctx, message); err != nil {
			k.logger.Error("kafka commit failed",
				"event", "kafka_commit_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"offset", message.Offset,
				"error", err.Error(),
			)
		}
	}
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	err := k.writer.Close()
	for _, reader := range k.readers {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
