//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/savator12/agriadapt/internal/adapter/kafka"
	"github.com/savator12/agriadapt/internal/alerts"
)

const testSMSTopic = "test-outbound-sms"

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// outboundMessage mirrors the bridge's wire format.
type outboundMessage struct {
	To      string `json:"to"`
	Body    string `json:"body"`
	AlertID string `json:"alert_id"`
}

// TestBridgeProviderPublish verifies that a dispatched alert message lands on
// the outbound SMS topic with the wire format the downstream bridge expects.
func TestBridgeProviderPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSMSTopic)

	provider := kafkaadapter.NewBridgeProvider([]string{broker}, testSMSTopic, discardLogger())
	t.Cleanup(func() { _ = provider.Close() })

	alertID := uuid.New()
	msg := alerts.Message{
		To:      "+251911234501",
		Body:    "Drought Alert: No significant rainfall expected for next 14 days. Plan irrigation if possible. - AGRIADAPT",
		AlertID: alertID,
	}

	result, err := provider.Send(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, "bridge_"+alertID.String(), result.MessageID)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSMSTopic,
		GroupID:     fmt.Sprintf("test-sms-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()

	raw, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sms topic")

	assert.Equal(t, alertID.String(), string(raw.Key), "messages are keyed by alert ID")

	var got outboundMessage
	require.NoError(t, json.Unmarshal(raw.Value, &got))
	assert.Equal(t, msg.To, got.To)
	assert.Equal(t, msg.Body, got.Body)
	assert.Equal(t, alertID.String(), got.AlertID)

	headers := make(map[string]string, len(raw.Headers))
	for _, h := range raw.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, msg.To, headers["recipient"])
	_, err = time.Parse(time.RFC3339, headers["queued_at"])
	assert.NoError(t, err, "queued_at should be valid RFC3339")
}

// TestBridgeProviderPartitioning verifies that redeliveries of the same alert
// land on the same partition while distinct alerts still round-trip intact.
func TestBridgeProviderPartitioning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSMSTopic)

	provider := kafkaadapter.NewBridgeProvider([]string{broker}, testSMSTopic, discardLogger())
	t.Cleanup(func() { _ = provider.Close() })

	first := uuid.New()
	second := uuid.New()
	sent := []alerts.Message{
		{To: "+251911234501", Body: "Heavy Rainfall Alert: 42.5mm expected over the next 7 days. - AGRIADAPT", AlertID: first},
		{To: "+251911234501", Body: "Heavy Rainfall Alert: 42.5mm expected over the next 7 days. - AGRIADAPT", AlertID: first},
		{To: "+251911234502", Body: "Heat Alert: Temperatures up to 38°C expected. Protect crops and livestock. - AGRIADAPT", AlertID: second},
	}
	for _, msg := range sent {
		_, err := provider.Send(ctx, msg)
		require.NoError(t, err)
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSMSTopic,
		GroupID:     fmt.Sprintf("test-sms-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byAlert := map[string][]kafkago.Message{}
	for i := 0; i < len(sent); i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		raw, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read message %d", i)
		byAlert[string(raw.Key)] = append(byAlert[string(raw.Key)], raw)
	}

	require.Len(t, byAlert[first.String()], 2)
	require.Len(t, byAlert[second.String()], 1)

	redeliveries := byAlert[first.String()]
	assert.Equal(t, redeliveries[0].Partition, redeliveries[1].Partition,
		"redeliveries of one alert share a partition")
}
