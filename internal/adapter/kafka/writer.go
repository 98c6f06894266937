package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/meteo-vigilance/internal/config"
	"github.com/couchcryptid/meteo-vigilance/internal/exporter"
	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	publishAttempts   = 3
	initialBackoff    = 200 * time.Millisecond
	maxPublishBackoff = 2 * time.Second
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces level-change messages to a Kafka topic.
// It implements exporter.Sink.
type Writer struct {
	writer  messageWriter
	topic   string
	logger  *slog.Logger
	backoff time.Duration
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, topic: cfg.KafkaSinkTopic, logger: logger, backoff: initialBackoff}
}

// Publish serializes and writes all changes of one poll in a single
// WriteMessages call, retried with exponential backoff while the brokers are
// unreachable. Messages are keyed by zone and phenomenon so that the history
// of a pair stays on one partition.
func (w *Writer) Publish(ctx context.Context, changes []exporter.LevelChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	backoff := w.backoff
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = w.writer.WriteMessages(ctx, msgs...); err == nil {
			w.logger.Debug("level changes published", "topic", w.topic, "count", len(msgs), "attempt", attempt)
			return nil
		}
		if attempt == publishAttempts {
			break
		}
		w.logger.Warn("kafka write failed, backing off", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("write level changes: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, maxPublishBackoff)
	}
	return fmt.Errorf("write level changes after %d attempts: %w", publishAttempts, err)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LevelChange into a Kafka message.
func serializeToMessage(change exporter.LevelChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize level change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(change.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "phenomenon_id", Value: []byte(change.PhenomenonID)},
			{Key: "color_id", Value: []byte(strconv.Itoa(change.ColorID))},
			{Key: "polled_at", Value: []byte(change.PolledAt.Format(time.RFC3339))},
		},
	}, nil
}
