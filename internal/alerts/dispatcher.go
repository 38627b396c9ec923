package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/savator12/agriadapt/internal/domain"
	"github.com/savator12/agriadapt/internal/observability"
)

// Message is one delivery request handed to a provider.
type Message struct {
	To      string
	Body    string
	AlertID uuid.UUID
}

// Result is a successful delivery's provider-side receipt.
type Result struct {
	MessageID string
}

// Provider delivers alert messages. Implementations may fail at a non-zero
// rate; a returned error counts as one failed attempt.
type Provider interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// DispatcherStore is the persistence surface the dispatcher needs. The Mark
// and Cancel operations are conditional updates: they apply only if the alert
// is still QUEUED with the expected attempt count, and report whether the
// update won. A lost update means another dispatcher pass got there first.
type DispatcherStore interface {
	DueQueuedAlerts(ctx context.Context, now time.Time, limit int) ([]domain.Alert, error)
	FarmerByID(ctx context.Context, id uuid.UUID) (*domain.FarmerProfile, error)
	MarkAlertSent(ctx context.Context, alertID uuid.UUID, prevAttempts int, providerMessageID string, at time.Time) (bool, error)
	MarkAlertFailure(ctx context.Context, alertID uuid.UUID, prevAttempts int, at time.Time) (bool, error)
	CancelAlert(ctx context.Context, alertID uuid.UUID) (bool, error)
}

// DispatchStats reports one processing pass's delivery outcomes. Cancelled
// alerts appear in neither counter.
type DispatchStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher drains the alert queue through a delivery provider. Alerts that
// fail keep their QUEUED status until the attempt cap; retry cadence is
// however often ProcessQueued runs, there is no internal backoff timer.
type Dispatcher struct {
	store    DispatcherStore
	provider Provider
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store DispatcherStore, provider Provider, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		store:    store,
		provider: provider,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// ProcessQueued delivers up to limit due alerts, oldest first, sequentially.
// Farmers who withdrew consent after queueing get their alerts CANCELLED
// without a delivery attempt. Failed counts every failed attempt, including
// ones that leave the alert QUEUED for a later pass.
func (d *Dispatcher) ProcessQueued(ctx context.Context, limit int) (DispatchStats, error) {
	start := d.clock.Now()
	defer func() {
		d.metrics.DispatchDuration.Observe(d.clock.Now().Sub(start).Seconds())
	}()

	due, err := d.store.DueQueuedAlerts(ctx, start, limit)
	if err != nil {
		return DispatchStats{}, fmt.Errorf("select due alerts: %w", err)
	}

	var stats DispatchStats
	for i := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		d.processOne(ctx, &due[i], &stats)
	}

	d.logger.Info("dispatch pass complete", "due", len(due), "sent", stats.Sent, "failed", stats.Failed)
	return stats, nil
}

func (d *Dispatcher) processOne(ctx context.Context, alert *domain.Alert, stats *DispatchStats) {
	farmer, err := d.store.FarmerByID(ctx, alert.FarmerID)
	if err != nil {
		d.logger.Error("farmer lookup failed, alert skipped", "alert_id", alert.ID, "farmer_id", alert.FarmerID, "error", err)
		return
	}

	if !farmer.Consent {
		applied, err := d.store.CancelAlert(ctx, alert.ID)
		if err != nil {
			d.logger.Error("cancel failed", "alert_id", alert.ID, "error", err)
			return
		}
		if applied {
			d.metrics.AlertsDispatched.WithLabelValues("cancelled").Inc()
			d.logger.Info("alert cancelled, consent withdrawn", "alert_id", alert.ID, "farmer_id", farmer.ID)
		}
		return
	}

	result, sendErr := d.provider.Send(ctx, Message{
		To:      farmer.Phone,
		Body:    alert.MessageText,
		AlertID: alert.ID,
	})
	now := d.clock.Now()

	if sendErr != nil {
		applied, err := d.store.MarkAlertFailure(ctx, alert.ID, alert.Attempts, now)
		if err != nil {
			d.logger.Error("record failed attempt", "alert_id", alert.ID, "error", err)
			return
		}
		if !applied {
			return
		}
		stats.Failed++
		attempts := alert.Attempts + 1
		if attempts >= domain.MaxDeliveryAttempts {
			d.metrics.AlertsDispatched.WithLabelValues("failed").Inc()
			d.logger.Warn("alert failed terminally", "alert_id", alert.ID, "attempts", attempts, "error", sendErr)
		} else {
			d.metrics.AlertsDispatched.WithLabelValues("retried").Inc()
			d.logger.Warn("delivery failed, will retry", "alert_id", alert.ID, "attempts", attempts, "error", sendErr)
		}
		return
	}

	applied, err := d.store.MarkAlertSent(ctx, alert.ID, alert.Attempts, result.MessageID, now)
	if err != nil {
		d.logger.Error("record delivery", "alert_id", alert.ID, "error", err)
		return
	}
	if !applied {
		return
	}
	stats.Sent++
	d.metrics.AlertsDispatched.WithLabelValues("sent").Inc()
	d.logger.Info("alert sent", "alert_id", alert.ID, "farmer_id", farmer.ID, "provider_message_id", result.MessageID)
}
