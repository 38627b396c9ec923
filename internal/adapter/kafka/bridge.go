// Package kafka implements the delivery provider over a Kafka topic. A
// downstream SMS bridge consumes the topic and talks to the actual telecom
// gateway, decoupling the portal from gateway availability.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/savator12/agriadapt/internal/alerts"
)

// BridgeProvider publishes outbound alert messages for the SMS bridge.
// It implements alerts.Provider; a successful publish counts as delivery,
// so the bridge owns downstream retries.
type BridgeProvider struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewBridgeProvider creates a producer for the outbound SMS topic.
func NewBridgeProvider(brokers []string, topic string, logger *slog.Logger) *BridgeProvider {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &BridgeProvider{writer: w, logger: logger}
}

// outboundMessage is the bridge's wire format.
type outboundMessage struct {
	To      string `json:"to"`
	Body    string `json:"body"`
	AlertID string `json:"alert_id"`
}

// Send publishes one alert message, keyed by alert ID so redeliveries of the
// same alert land in the same partition.
func (p *BridgeProvider) Send(ctx context.Context, msg alerts.Message) (alerts.Result, error) {
	kafkaMsg, err := serializeToMessage(msg)
	if err != nil {
		return alerts.Result{}, err
	}
	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return alerts.Result{}, fmt.Errorf("publish alert message: %w", err)
	}

	p.logger.Debug("alert published to bridge", "alert_id", msg.AlertID)
	return alerts.Result{MessageID: "bridge_" + msg.AlertID.String()}, nil
}

func (p *BridgeProvider) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an alert message into a Kafka message.
func serializeToMessage(msg alerts.Message) (kafkago.Message, error) {
	data, err := json.Marshal(outboundMessage{
		To:      msg.To,
		Body:    msg.Body,
		AlertID: msg.AlertID.String(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert message: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(msg.AlertID.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "recipient", Value: []byte(msg.To)},
			{Key: "queued_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
