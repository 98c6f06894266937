package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/meteo-vigilance/internal/config"
	"github.com/couchcryptid/meteo-vigilance/internal/exporter"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ exporter.Sink = (*Writer)(nil)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	change := exporter.LevelChange{
		DomainID:        "13",
		PhenomenonID:    "1",
		PhenomenonLabel: "vent",
		PreviousColorID: 2,
		ColorID:         3,
		ColorName:       "Orange",
		PolledAt:        now,
	}

	msg, err := serializeToMessage(change)
	require.NoError(t, err)

	assert.Equal(t, []byte("13|1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"phenomenon_label":"vent"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, kafkago.Header{Key: "phenomenon_id", Value: []byte("1")}, msg.Headers[0])
	assert.Equal(t, kafkago.Header{Key: "color_id", Value: []byte("3")}, msg.Headers[1])
	assert.Equal(t, "polled_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded exporter.LevelChange
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, change, decoded)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker1:9092", "broker2:9092"}, KafkaSinkTopic: "vigilance-levels"}

	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "vigilance-levels", kw.Topic)
	assert.Equal(t, "vigilance-levels", w.topic)
	assert.Equal(t, "broker1:9092,broker2:9092", kw.Addr.String())
	assert.Equal(t, kafkago.RequireAll, kw.RequiredAcks)
}

func TestPublish_NoChanges(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaSinkTopic: "vigilance-levels"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.NoError(t, w.Publish(context.Background(), nil))
}

type flakyWriter struct {
	failures int
	calls    int
	got      []kafkago.Message
}

func (f *flakyWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("leader not available")
	}
	f.got = append(f.got, msgs...)
	return nil
}

func (f *flakyWriter) Close() error { return nil }

func newTestWriter(mw messageWriter) *Writer {
	return &Writer{
		writer:  mw,
		topic:   "vigilance-levels",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		backoff: time.Millisecond,
	}
}

func TestPublish_RetriesTransientFailure(t *testing.T) {
	mw := &flakyWriter{failures: 2}
	changes := []exporter.LevelChange{
		{DomainID: "13", PhenomenonID: "1", ColorID: 3},
		{DomainID: "2A", PhenomenonID: "6", ColorID: 2},
	}

	require.NoError(t, newTestWriter(mw).Publish(context.Background(), changes))
	assert.Equal(t, 3, mw.calls)
	require.Len(t, mw.got, 2)
	assert.Equal(t, []byte("2A|6"), mw.got[1].Key)
}

func TestPublish_GivesUp(t *testing.T) {
	mw := &flakyWriter{failures: 10}

	err := newTestWriter(mw).Publish(context.Background(), []exporter.LevelChange{{DomainID: "13", PhenomenonID: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, mw.calls)
}

func TestPublish_CancelledDuringBackoff(t *testing.T) {
	mw := &flakyWriter{failures: 10}
	w := newTestWriter(mw)
	w.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Publish(ctx, []exporter.LevelChange{{DomainID: "13", PhenomenonID: "1"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mw.calls)
}
