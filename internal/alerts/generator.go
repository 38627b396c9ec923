// Package alerts turns advisory risk profiles into queued alert messages and
// drives their delivery through a provider with bounded retries.
package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/savator12/agriadapt/internal/domain"
	"github.com/savator12/agriadapt/internal/observability"
)

// heavyRainfallThresholdMm is the 7-day rainfall total above which a flood
// risk becomes an alert.
const heavyRainfallThresholdMm = 20.0

// GeneratorStore is the persistence surface the generator needs.
type GeneratorStore interface {
	FarmerByID(ctx context.Context, id uuid.UUID) (*domain.FarmerProfile, error)
	HasActiveSubscription(ctx context.Context, farmerID uuid.UUID) (bool, error)
	ActiveFarmerIDs(ctx context.Context) ([]uuid.UUID, error)
	CreateAlert(ctx context.Context, alert *domain.Alert) error
}

// AdvisorySource computes the risk profile the generator thresholds against.
type AdvisorySource interface {
	Compose(ctx context.Context, farmerID uuid.UUID) (domain.AdvisoryResult, *domain.FarmerProfile, error)
}

// Generator maps advisory risk thresholds to zero or more queued alerts.
type Generator struct {
	store      GeneratorStore
	advisories AdvisorySource
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewGenerator creates a Generator.
func NewGenerator(store GeneratorStore, advisories AdvisorySource, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		store:      store,
		advisories: advisories,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// GenerateForFarmer evaluates one farmer's advisory against the alert
// thresholds and queues the matching alerts. A farmer without consent or
// without an active subscription yields no alerts and no error. Returns the
// IDs of the queued alerts.
func (g *Generator) GenerateForFarmer(ctx context.Context, farmerID uuid.UUID) ([]uuid.UUID, error) {
	farmer, err := g.store.FarmerByID(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("load farmer %s: %w", farmerID, err)
	}
	if !farmer.Consent {
		return nil, nil
	}

	subscribed, err := g.store.HasActiveSubscription(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("check subscription for %s: %w", farmerID, err)
	}
	if !subscribed {
		return nil, nil
	}

	result, farmer, err := g.advisories.Compose(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()
	var queued []*domain.Alert

	if result.RiskSummary.DroughtRisk == domain.RiskHigh {
		queued = append(queued, domain.NewAlert(farmerID, domain.AlertDrought, domain.SeverityHigh,
			domain.DroughtMessage(farmer.FullName, domain.ForecastDays), now))
	}

	if result.RiskSummary.FloodRisk != domain.RiskLow &&
		result.WeatherSummary.Next7Days.RainfallMm > heavyRainfallThresholdMm {
		queued = append(queued, domain.NewAlert(farmerID, domain.AlertHeavyRainfall, domain.SeverityMedium,
			domain.HeavyRainfallMessage(farmer.FullName, result.WeatherSummary.Next7Days.RainfallMm), now))
	}

	if result.RiskSummary.HeatRisk == domain.RiskHigh {
		queued = append(queued, domain.NewAlert(farmerID, domain.AlertTemperatureExtreme, domain.SeverityMedium,
			domain.TemperatureMessage(farmer.FullName, result.WeatherSummary.MaxTemp, true), now))
	}

	ids := make([]uuid.UUID, 0, len(queued))
	for _, alert := range queued {
		if err := g.store.CreateAlert(ctx, alert); err != nil {
			return ids, fmt.Errorf("queue %s alert for %s: %w", alert.Type, farmerID, err)
		}
		g.metrics.AlertsGenerated.WithLabelValues(string(alert.Type)).Inc()
		ids = append(ids, alert.ID)
	}

	if len(ids) > 0 {
		g.logger.Info("alerts queued", "farmer_id", farmerID, "count", len(ids))
	}
	return ids, nil
}

// GenerateForAllActiveFarmers runs alert generation for every consenting
// farmer with an active subscription. A failure for one farmer is logged and
// does not stop the batch. Returns the total number of alerts queued.
func (g *Generator) GenerateForAllActiveFarmers(ctx context.Context) (int, error) {
	farmerIDs, err := g.store.ActiveFarmerIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active farmers: %w", err)
	}

	generated := 0
	for _, id := range farmerIDs {
		if ctx.Err() != nil {
			return generated, ctx.Err()
		}
		ids, err := g.GenerateForFarmer(ctx, id)
		if err != nil {
			g.logger.Error("alert generation failed", "farmer_id", id, "error", err)
			continue
		}
		generated += len(ids)
	}

	g.logger.Info("alert generation batch complete", "farmers", len(farmerIDs), "alerts", generated)
	return generated, nil
}
