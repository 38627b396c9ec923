// Package weather serves forecast windows for kebeles, caching synthesized
// snapshots in storage with a freshness TTL.
package weather

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

// SnapshotStore persists and retrieves weather snapshots.
type SnapshotStore interface {
	// LatestSnapshot returns the newest snapshot for the kebele created at or
	// after since, or (nil, nil) when none exists.
	LatestSnapshot(ctx context.Context, kebeleID uuid.UUID, since time.Time) (*domain.WeatherSnapshot, error)
	CreateSnapshot(ctx context.Context, snapshot *domain.WeatherSnapshot) error
}

// SnapshotCache is a read-through cache over SnapshotStore. A lookup inside
// the TTL window returns the stored forecast document verbatim; a miss
// synthesizes a fresh window and writes exactly one new row. Concurrent misses
// for the same kebele may each write a row; the newest wins on the next read
// and the extra rows are harmless.
type SnapshotCache struct {
	store   SnapshotStore
	clock   clockwork.Clock
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSnapshotCache creates a SnapshotCache. A non-positive ttl falls back to
// the domain default.
func NewSnapshotCache(store SnapshotStore, clock clockwork.Clock, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *SnapshotCache {
	if ttl <= 0 {
		ttl = domain.SnapshotTTL
	}
	return &SnapshotCache{
		store:   store,
		clock:   clock,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Snapshot returns the forecast window for a kebele at the given coordinates.
// Storage failures are returned as errors; the cache never degrades to
// serving uncached synthesized data, so repeated calls cannot silently
// diverge from what was persisted.
func (c *SnapshotCache) Snapshot(ctx context.Context, kebeleID uuid.UUID, lat, lon float64) (domain.WeatherData, error) {
	now := c.clock.Now()

	cached, err := c.store.LatestSnapshot(ctx, kebeleID, now.Add(-c.ttl))
	if err != nil {
		return domain.WeatherData{}, fmt.Errorf("lookup weather snapshot: %w", err)
	}
	if cached != nil {
		data, err := cached.Weather()
		if err != nil {
			return domain.WeatherData{}, err
		}
		c.metrics.WeatherCacheLookups.WithLabelValues("hit").Inc()
		c.logger.Debug("weather snapshot hit", "kebele_id", kebeleID, "snapshot_id", cached.ID)
		return data, nil
	}

	c.metrics.WeatherCacheLookups.WithLabelValues("miss").Inc()

	data := domain.SynthesizeForecast(lat, lon, domain.ForecastDays, now)
	snapshot, err := domain.NewWeatherSnapshot(kebeleID, lat, lon, data, now)
	if err != nil {
		return domain.WeatherData{}, err
	}
	if err := c.store.CreateSnapshot(ctx, snapshot); err != nil {
		return domain.WeatherData{}, fmt.Errorf("persist weather snapshot: %w", err)
	}

	c.logger.Info("weather snapshot created",
		"kebele_id", kebeleID,
		"snapshot_id", snapshot.ID,
		"period_start", snapshot.PeriodStart,
		"period_end", snapshot.PeriodEnd)
	return data, nil
}
