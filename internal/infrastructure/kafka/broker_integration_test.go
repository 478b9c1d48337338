//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/kafka"
	"github.com/Singh-Sg/loan-app/pkg/events"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
	"github.com/Singh-Sg/loan-app/pkg/testutil"
)

const (
	eventsTopic    = "servicing.events"
	transfersTopic = "payments.transfers.confirmed"
)

func setupBroker(t *testing.T) pkgkafka.Config {
	t.Helper()
	ctx := context.Background()
	kc := testutil.NewKafkaContainer(ctx, t)
	kc.CreateTopics(ctx, t, eventsTopic, transfersTopic)
	return pkgkafka.Config{
		Brokers:       kc.Brokers,
		ClientID:      "servicing-test",
		ConsumerGroup: "servicing-test",
	}
}

func TestBroker_OutboxPublisherDeliversEntries(t *testing.T) {
	cfg := setupBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()

	pub := kafka.NewOutboxPublisher(producer, eventsTopic, discard)
	require.NoError(t, pub.PublishEntries(ctx,
		events.OutboxEntry{ID: "evt-1", AggregateID: "loan-1", AggregateType: "loan", EventType: "loan.repayment_recorded", Payload: []byte(`{"n":1}`)},
		events.OutboxEntry{ID: "evt-2", AggregateID: "loan-1", AggregateType: "loan", EventType: "loan.repaid", Payload: []byte(`{"n":2}`)},
	))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     eventsTopic,
		Partition: 0,
	})
	defer reader.Close()

	var got []kafkago.Message
	for len(got) < 2 {
		m, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		got = append(got, m)
	}

	assert.Equal(t, "loan-1", string(got[0].Key))
	assert.JSONEq(t, `{"n":1}`, string(got[0].Value))
	assert.JSONEq(t, `{"n":2}`, string(got[1].Value))
	headers := map[string]string{}
	for _, h := range got[1].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "loan.repaid", headers["event_type"])
	assert.Equal(t, "evt-2", headers["event_id"])
}

func TestBroker_TransferConsumerIngestsConfirmations(t *testing.T) {
	cfg := setupBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	valid, err := json.Marshal(dto.IngestTransferRequest{
		ID:             "tr-1",
		CounterpartyID: "cp-1",
		Amount:         decimal.NewFromInt(1000),
		Timestamp:      time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		Successful:     true,
	})
	require.NoError(t, err)

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.Publish(ctx, transfersTopic,
		pkgkafka.Message{Key: []byte("garbage"), Value: []byte("not json")},
		pkgkafka.Message{Key: []byte("tr-1"), Value: valid},
	))

	received := make(chan dto.IngestTransferRequest, 1)
	ingester := &mockIngester{
		executeFunc: func(_ context.Context, req dto.IngestTransferRequest) (dto.IngestTransferResponse, error) {
			received <- req
			return dto.IngestTransferResponse{ID: req.ID, Inserted: true}, nil
		},
	}

	consumer, err := pkgkafka.NewConsumer(cfg, transfersTopic, kafka.TransferConfirmationHandler(ingester, discard), discard)
	require.NoError(t, err)
	defer consumer.Close()

	consumeCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Start(consumeCtx) }()

	select {
	case req := <-received:
		assert.Equal(t, "tr-1", req.ID)
		assert.Equal(t, "cp-1", req.CounterpartyID)
		assert.True(t, req.Amount.Equal(decimal.NewFromInt(1000)))
	case <-ctx.Done():
		t.Fatal("transfer confirmation was not consumed")
	}

	stop()
	require.NoError(t, <-done)
}
