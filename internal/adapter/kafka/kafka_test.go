package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hail-retrieval-service/internal/radar"
)

func TestMapMessageToRaw(t *testing.T) {
	ts := time.Date(2025, 5, 20, 23, 0, 0, 0, time.UTC)
	msg := kafkago.Message{
		Topic:     "raw-radar-volumes",
		Partition: 3,
		Offset:    1042,
		Key:       []byte("vol-9"),
		Value:     []byte(`{"band":"S"}`),
		Time:      ts,
		Headers: []kafkago.Header{
			{Key: "radar_id", Value: []byte("KTLX")},
			{Key: "schema", Value: []byte("v1")},
		},
	}

	raw := mapMessageToRaw(msg)

	assert.Equal(t, "raw-radar-volumes", raw.Topic)
	assert.Equal(t, 3, raw.Partition)
	assert.Equal(t, int64(1042), raw.Offset)
	assert.Equal(t, []byte("vol-9"), raw.Key)
	assert.Equal(t, []byte(`{"band":"S"}`), raw.Value)
	assert.Equal(t, ts, raw.Timestamp)
	assert.Equal(t, map[string]string{"radar_id": "KTLX", "schema": "v1"}, raw.Headers)
	assert.Nil(t, raw.Commit, "commit wiring happens in mapMessage, not here")
}

func TestSerializeToMessage(t *testing.T) {
	out := radar.OutputMessage{
		Key:   []byte("vol-9"),
		Value: []byte(`{"band":"S"}`),
		Headers: map[string]string{
			"radar_id":     "KTLX",
			"processed_at": "2025-05-20T23:15:00Z",
			"internal":     "dropped",
		},
	}

	msg := serializeToMessage(out)

	assert.Equal(t, []byte("vol-9"), msg.Key)
	assert.Equal(t, []byte(`{"band":"S"}`), msg.Value)

	require.Len(t, msg.Headers, 2, "only the contract headers go on the wire")
	got := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		got[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{
		"radar_id":     "KTLX",
		"processed_at": "2025-05-20T23:15:00Z",
	}, got)
}

func TestSerializeToMessageMissingHeaders(t *testing.T) {
	msg := serializeToMessage(radar.OutputMessage{Key: []byte("k"), Value: []byte("v")})
	assert.Empty(t, msg.Headers)
}
