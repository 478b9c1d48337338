package kafka_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/kafka"
	"github.com/Singh-Sg/loan-app/pkg/events"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
	topic       string
	messages    []pkgkafka.Message
}

func (m *mockProducer) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, topic, messages...)
	}
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return nil
}

type mockIngester struct {
	executeFunc func(ctx context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error)
	calls       []dto.IngestTransferRequest
}

func (m *mockIngester) Execute(ctx context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
	m.calls = append(m.calls, req)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return dto.IngestTransferResponse{ID: req.ID, Inserted: true}, nil
}

func TestOutboxPublisher_PublishEntries(t *testing.T) {
	t.Run("keys by aggregate and sets headers", func(t *testing.T) {
		producer := &mockProducer{}
		pub := kafka.NewOutboxPublisher(producer, "servicing.events", discard)

		err := pub.PublishEntries(context.Background(), events.OutboxEntry{
			ID:            "evt-1",
			AggregateID:   "loan-1",
			AggregateType: "loan",
			EventType:     "servicing.loan.created",
			Payload:       []byte(`{"id":"evt-1"}`),
			CreatedAt:     time.Now(),
		})
		require.NoError(t, err)

		assert.Equal(t, "servicing.events", producer.topic)
		require.Len(t, producer.messages, 1)
		msg := producer.messages[0]
		assert.Equal(t, []byte("loan-1"), msg.Key)
		assert.JSONEq(t, `{"id":"evt-1"}`, string(msg.Value))
		assert.Equal(t, "servicing.loan.created", msg.Headers["event_type"])
		assert.Equal(t, "evt-1", msg.Headers["event_id"])
		assert.Equal(t, "loan", msg.Headers["aggregate_type"])
	})

	t.Run("nothing to publish", func(t *testing.T) {
		producer := &mockProducer{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			t.Fatal("producer should not be called")
			return nil
		}}
		require.NoError(t, kafka.NewOutboxPublisher(producer, "t", discard).PublishEntries(context.Background()))
	})

	t.Run("producer failure", func(t *testing.T) {
		producer := &mockProducer{publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			return errors.New("broker down")
		}}
		err := kafka.NewOutboxPublisher(producer, "t", discard).PublishEntries(context.Background(), events.OutboxEntry{ID: "e"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")
	})
}

func TestTransferConfirmationHandler(t *testing.T) {
	payload := []byte(`{
		"id": "tr-1",
		"counterparty_id": "agent-1",
		"amount": "1300",
		"timestamp": "2024-03-10T08:00:00Z",
		"successful": true,
		"external_ref": "bank-42"
	}`)

	t.Run("decodes and ingests", func(t *testing.T) {
		ingester := &mockIngester{}
		handler := kafka.TransferConfirmationHandler(ingester, discard)

		require.NoError(t, handler(context.Background(), pkgkafka.Message{Value: payload}))

		require.Len(t, ingester.calls, 1)
		req := ingester.calls[0]
		assert.Equal(t, "tr-1", req.ID)
		assert.Equal(t, "agent-1", req.CounterpartyID)
		assert.True(t, decimal.NewFromInt(1300).Equal(req.Amount))
		assert.True(t, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC).Equal(req.Timestamp))
		assert.True(t, req.Successful)
		assert.Equal(t, "bank-42", req.ExternalRef)
	})

	t.Run("duplicate is acknowledged", func(t *testing.T) {
		ingester := &mockIngester{executeFunc: func(_ context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
			return dto.IngestTransferResponse{ID: req.ID, Inserted: false}, nil
		}}
		require.NoError(t, kafka.TransferConfirmationHandler(ingester, discard)(context.Background(), pkgkafka.Message{Value: payload}))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		ingester := &mockIngester{}
		err := kafka.TransferConfirmationHandler(ingester, discard)(context.Background(), pkgkafka.Message{Value: []byte("{")})
		require.NoError(t, err)
		assert.Empty(t, ingester.calls)
	})

	t.Run("invalid request is dropped", func(t *testing.T) {
		ingester := &mockIngester{executeFunc: func(context.Context, dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
			return dto.IngestTransferResponse{}, usecase.ErrInvalidRequest
		}}
		require.NoError(t, kafka.TransferConfirmationHandler(ingester, discard)(context.Background(), pkgkafka.Message{Value: payload}))
	})

	t.Run("store failure is retried", func(t *testing.T) {
		ingester := &mockIngester{executeFunc: func(context.Context, dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
			return dto.IngestTransferResponse{}, errors.New("connection reset")
		}}
		err := kafka.TransferConfirmationHandler(ingester, discard)(context.Background(), pkgkafka.Message{Value: payload})
		assert.Error(t, err)
	})
}
