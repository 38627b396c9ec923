// Package sms provides delivery providers for alert messages: an in-memory
// mock for development and a JSON gateway client for production.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/savator12/agriadapt/internal/alerts"
)

// ErrSimulatedFailure is what the mock provider returns on its simulated
// delivery failures.
var ErrSimulatedFailure = errors.New("simulated provider failure")

// MockProvider fakes a delivery gateway with a configurable failure rate.
// The random source is injected so tests stay deterministic.
type MockProvider struct {
	failureRate float64
	rng         *rand.Rand
	logger      *slog.Logger
	sent        int
}

// NewMockProvider creates a MockProvider. failureRate is clamped to [0, 1].
func NewMockProvider(failureRate float64, rng *rand.Rand, logger *slog.Logger) *MockProvider {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	return &MockProvider{
		failureRate: failureRate,
		rng:         rng,
		logger:      logger,
	}
}

// Send pretends to deliver the message, failing at the configured rate.
func (p *MockProvider) Send(_ context.Context, msg alerts.Message) (alerts.Result, error) {
	if p.rng.Float64() < p.failureRate {
		p.logger.Warn("mock delivery failed", "to", msg.To, "alert_id", msg.AlertID)
		return alerts.Result{}, ErrSimulatedFailure
	}

	p.sent++
	messageID := fmt.Sprintf("mock_%s_%d", msg.AlertID, p.sent)
	p.logger.Debug("mock delivery", "to", msg.To, "message_id", messageID)
	return alerts.Result{MessageID: messageID}, nil
}
