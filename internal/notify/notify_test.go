package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafedash/internal/domain"
)

var sampleChange = domain.StatusChange{
	OrderID:        "X",
	NewStatus:      domain.StatusReady,
	PreviousStatus: domain.StatusPending,
	CustomerName:   "Ann",
	Phone:          "+15550100",
	Timestamp:      1_700_000_000_000,
}

func TestWebhookNotifier_PostsChange(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, srv.Client()).Notify(context.Background(), sampleChange)

	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "X", got["orderId"])
	assert.Equal(t, "Ready", got["newStatus"])
	assert.Equal(t, "Pending", got["previousStatus"])
	assert.Equal(t, "+15550100", got["phone"])
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, nil).Notify(context.Background(), sampleChange)

	assert.EqualError(t, err, "webhook returned status 502")
}

func TestWebhookNotifier_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewWebhookNotifier(srv.URL, nil).Notify(ctx, sampleChange)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type mockMessageWriter struct {
	WriteMessagesFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed            bool
}

func (m *mockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.WriteMessagesFunc(ctx, msgs...)
}

func (m *mockMessageWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaNotifier_KeysByOrderID(t *testing.T) {
	var written []kafka.Message
	writer := &mockMessageWriter{WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		written = append(written, msgs...)
		return nil
	}}
	n := NewKafkaNotifier(writer)

	require.NoError(t, n.Notify(context.Background(), sampleChange))
	require.Len(t, written, 1)

	assert.Equal(t, "X", string(written[0].Key))
	var decoded domain.StatusChange
	require.NoError(t, json.Unmarshal(written[0].Value, &decoded))
	assert.Equal(t, sampleChange, decoded)

	require.NoError(t, n.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	writer := &mockMessageWriter{WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("leader not available")
	}}

	err := NewKafkaNotifier(writer).Notify(context.Background(), sampleChange)

	assert.EqualError(t, err, "writing kafka message: leader not available")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"k1:9092", "k2:9092"}, "order-status")

	assert.Equal(t, "order-status", w.Topic)
	assert.Equal(t, "tcp", w.Addr.Network())
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
