package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"easymo/internal/config"
	"easymo/internal/constants"
	"easymo/pkg/models"
)

// KafkaQueue consumes outbound notifications from a Kafka topic, for
// deployments where the surrounding platform already publishes there
// instead of the Redis list.
type KafkaQueue struct {
	reader *kafka.Reader
	writer *kafka.Writer
	topic  string
	poll   time.Duration
}

func NewKafkaQueue(cfg config.KafkaConfig, topic string) *KafkaQueue {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}
	return &KafkaQueue{
		reader: reader,
		writer: writer,
		topic:  topic,
		poll:   defaultPollWindow,
	}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.ID),
		Value: body,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Dequeue(ctx context.Context) (*models.Notification, error) {
	pollCtx, cancel := context.WithTimeout(ctx, q.poll)
	defer cancel()

	m, err := q.reader.FetchMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch kafka message: %w", err)
	}

	var n models.Notification
	if err := json.Unmarshal(m.Value, &n); err != nil {
		// Commit the bad entry so it does not block the partition.
		_ = q.reader.CommitMessages(ctx, m)
		return nil, ErrMalformed
	}

	if err := q.reader.CommitMessages(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to commit kafka message: %w", err)
	}
	return &n, nil
}

func (q *KafkaQueue) Close() error {
	err := q.reader.Close()
	if closeErr := q.writer.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
