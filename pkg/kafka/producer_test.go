package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	t.Run("keeps brokers and starts without writers", func(t *testing.T) {
		p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
		assert.Empty(t, p.writers)
	})

	t.Run("requires a broker", func(t *testing.T) {
		_, err := NewProducer(Config{})
		assert.Error(t, err)
	})

	t.Run("rejects an unknown SASL mechanism", func(t *testing.T) {
		_, err := NewProducer(Config{
			Brokers:       []string{"kafka:9092"},
			SASLEnabled:   true,
			SASLMechanism: "GSSAPI",
		})
		assert.ErrorContains(t, err, "unsupported SASL mechanism")
	})
}

func TestProducer_WriterPerTopic(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"kafka:9092"}, ClientID: "servicingd"})
	require.NoError(t, err)

	w1 := p.getOrCreateWriter("servicing-events")
	w2 := p.getOrCreateWriter("servicing-events")
	w3 := p.getOrCreateWriter("other")

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, "servicing-events", w1.Topic)
	assert.IsType(t, &kafkago.Hash{}, w1.Balancer)
	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestMessageConversion(t *testing.T) {
	msgs := toKafkaMessages([]Message{{
		Key:     []byte("loan-1"),
		Value:   []byte(`{"amount":"3700"}`),
		Headers: map[string]string{"event_type": "servicing.repayment.recorded"},
	}})
	require.Len(t, msgs, 1)
	assert.Equal(t, "loan-1", string(msgs[0].Key))
	require.Len(t, msgs[0].Headers, 1)
	assert.Equal(t, "event_type", msgs[0].Headers[0].Key)

	back := fromKafkaMessage(msgs[0])
	assert.Equal(t, "servicing.repayment.recorded", back.Headers["event_type"])
	assert.Equal(t, `{"amount":"3700"}`, string(back.Value))
}

func TestConfigDialer(t *testing.T) {
	d, err := Config{}.dialer()
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = Config{TLS: true, SASLEnabled: true, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}.dialer()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.NotNil(t, d.TLS)
	assert.NotNil(t, d.SASLMechanism)
}
