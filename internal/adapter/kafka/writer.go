package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hail-retrieval-service/internal/config"
	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

// Writer produces enriched volume messages to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   64 << 20,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple enriched volumes to the sink topic in a
// single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, msgs []radar.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafkago.Message, len(msgs))
	for i, m := range msgs {
		out[i] = serializeToMessage(m)
	}
	return w.writer.WriteMessages(ctx, out...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts an OutputMessage into a Kafka message,
// preserving the key and headers set by the transformer.
func serializeToMessage(m radar.OutputMessage) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(m.Headers))
	for _, key := range []string{"radar_id", "processed_at"} {
		if v, ok := m.Headers[key]; ok {
			headers = append(headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
	}
}
