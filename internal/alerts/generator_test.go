package alerts

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savator12/agriadapt/internal/domain"
	"github.com/savator12/agriadapt/internal/observability"
)

var testStart = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type fakeGenStore struct {
	farmers       map[uuid.UUID]*domain.FarmerProfile
	subscribed    map[uuid.UUID]bool
	activeIDs     []uuid.UUID
	alerts        []*domain.Alert
	createErr     error
	activeIDsErr  error
	subscribedErr error
}

func (f *fakeGenStore) FarmerByID(_ context.Context, id uuid.UUID) (*domain.FarmerProfile, error) {
	farmer, ok := f.farmers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return farmer, nil
}

func (f *fakeGenStore) HasActiveSubscription(_ context.Context, farmerID uuid.UUID) (bool, error) {
	if f.subscribedErr != nil {
		return false, f.subscribedErr
	}
	return f.subscribed[farmerID], nil
}

func (f *fakeGenStore) ActiveFarmerIDs(_ context.Context) ([]uuid.UUID, error) {
	if f.activeIDsErr != nil {
		return nil, f.activeIDsErr
	}
	return f.activeIDs, nil
}

func (f *fakeGenStore) CreateAlert(_ context.Context, alert *domain.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

type fakeAdvisorySource struct {
	results map[uuid.UUID]domain.AdvisoryResult
	farmers map[uuid.UUID]*domain.FarmerProfile
	err     error
}

func (f *fakeAdvisorySource) Compose(_ context.Context, farmerID uuid.UUID) (domain.AdvisoryResult, *domain.FarmerProfile, error) {
	if f.err != nil {
		return domain.AdvisoryResult{}, nil, f.err
	}
	return f.results[farmerID], f.farmers[farmerID], nil
}

func consentedFarmer() *domain.FarmerProfile {
	return &domain.FarmerProfile{
		ID:       uuid.New(),
		FullName: "Abebe Kebede",
		Phone:    "+251911000001",
		Consent:  true,
		Language: domain.LanguageAmharic,
	}
}

func riskResult(drought, flood, heat domain.RiskLevel, next7Mm, maxTemp float64) domain.AdvisoryResult {
	return domain.AdvisoryResult{
		RiskSummary: domain.RiskSummary{
			OverallRisk: drought,
			DroughtRisk: drought,
			FloodRisk:   flood,
			HeatRisk:    heat,
		},
		WeatherSummary: domain.AdvisoryWeather{
			MaxTemp:   maxTemp,
			Next7Days: domain.Next7Days{RainfallMm: next7Mm},
		},
	}
}

func newTestGenerator(store *fakeGenStore, source AdvisorySource) *Generator {
	logger := slog.New(slog.DiscardHandler)
	return NewGenerator(store, source, clockwork.NewFakeClockAt(testStart), logger, observability.NewMetricsForTesting())
}

func TestGenerateForFarmer(t *testing.T) {
	setup := func(result domain.AdvisoryResult) (*fakeGenStore, *Generator, uuid.UUID) {
		farmer := consentedFarmer()
		store := &fakeGenStore{
			farmers:    map[uuid.UUID]*domain.FarmerProfile{farmer.ID: farmer},
			subscribed: map[uuid.UUID]bool{farmer.ID: true},
		}
		source := &fakeAdvisorySource{
			results: map[uuid.UUID]domain.AdvisoryResult{farmer.ID: result},
			farmers: map[uuid.UUID]*domain.FarmerProfile{farmer.ID: farmer},
		}
		return store, newTestGenerator(store, source), farmer.ID
	}

	t.Run("high drought risk queues a drought alert", func(t *testing.T) {
		store, gen, farmerID := setup(riskResult(domain.RiskHigh, domain.RiskLow, domain.RiskLow, 5, 28))

		ids, err := gen.GenerateForFarmer(context.Background(), farmerID)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		require.Len(t, store.alerts, 1)

		alert := store.alerts[0]
		assert.Equal(t, domain.AlertDrought, alert.Type)
		assert.Equal(t, domain.SeverityHigh, alert.Severity)
		assert.Equal(t, domain.AlertQueued, alert.Status)
		assert.Equal(t, 0, alert.Attempts)
		assert.Equal(t, testStart, alert.ScheduleTime)
		assert.Contains(t, alert.MessageText, "Abebe Kebede, Drought Alert")
	})

	t.Run("flood risk needs the rainfall total too", func(t *testing.T) {
		store, gen, farmerID := setup(riskResult(domain.RiskLow, domain.RiskMedium, domain.RiskLow, 25, 28))
		ids, err := gen.GenerateForFarmer(context.Background(), farmerID)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, domain.AlertHeavyRainfall, store.alerts[0].Type)
		assert.Contains(t, store.alerts[0].MessageText, "25.0mm")

		store2, gen2, farmerID2 := setup(riskResult(domain.RiskLow, domain.RiskMedium, domain.RiskLow, 18, 28))
		ids, err = gen2.GenerateForFarmer(context.Background(), farmerID2)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, store2.alerts)
	})

	t.Run("high heat risk queues a temperature alert", func(t *testing.T) {
		store, gen, farmerID := setup(riskResult(domain.RiskLow, domain.RiskLow, domain.RiskHigh, 5, 37))
		ids, err := gen.GenerateForFarmer(context.Background(), farmerID)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, domain.AlertTemperatureExtreme, store.alerts[0].Type)
		assert.Equal(t, domain.SeverityMedium, store.alerts[0].Severity)
		assert.Contains(t, store.alerts[0].MessageText, "Heat Alert")
	})

	t.Run("all three thresholds stack", func(t *testing.T) {
		store, gen, farmerID := setup(riskResult(domain.RiskHigh, domain.RiskHigh, domain.RiskHigh, 30, 38))
		ids, err := gen.GenerateForFarmer(context.Background(), farmerID)
		require.NoError(t, err)
		assert.Len(t, ids, 3)
		assert.Len(t, store.alerts, 3)
	})

	t.Run("no consent yields nothing", func(t *testing.T) {
		farmer := consentedFarmer()
		farmer.Consent = false
		store := &fakeGenStore{
			farmers:    map[uuid.UUID]*domain.FarmerProfile{farmer.ID: farmer},
			subscribed: map[uuid.UUID]bool{farmer.ID: true},
		}
		gen := newTestGenerator(store, &fakeAdvisorySource{})

		ids, err := gen.GenerateForFarmer(context.Background(), farmer.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, store.alerts)
	})

	t.Run("no active subscription yields nothing", func(t *testing.T) {
		farmer := consentedFarmer()
		store := &fakeGenStore{
			farmers:    map[uuid.UUID]*domain.FarmerProfile{farmer.ID: farmer},
			subscribed: map[uuid.UUID]bool{},
		}
		gen := newTestGenerator(store, &fakeAdvisorySource{})

		ids, err := gen.GenerateForFarmer(context.Background(), farmer.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("unknown farmer is an error", func(t *testing.T) {
		gen := newTestGenerator(&fakeGenStore{farmers: map[uuid.UUID]*domain.FarmerProfile{}}, &fakeAdvisorySource{})
		_, err := gen.GenerateForFarmer(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("persist failure surfaces", func(t *testing.T) {
		store, gen, farmerID := setup(riskResult(domain.RiskHigh, domain.RiskLow, domain.RiskLow, 5, 28))
		store.createErr = errors.New("db down")
		_, err := gen.GenerateForFarmer(context.Background(), farmerID)
		assert.ErrorContains(t, err, "queue DROUGHT alert")
	})
}

func TestGenerateForAllActiveFarmers(t *testing.T) {
	t.Run("per-farmer failures do not stop the batch", func(t *testing.T) {
		healthy := consentedFarmer()
		store := &fakeGenStore{
			farmers:    map[uuid.UUID]*domain.FarmerProfile{healthy.ID: healthy},
			subscribed: map[uuid.UUID]bool{healthy.ID: true},
			activeIDs:  []uuid.UUID{uuid.New(), healthy.ID},
		}
		source := &fakeAdvisorySource{
			results: map[uuid.UUID]domain.AdvisoryResult{healthy.ID: riskResult(domain.RiskHigh, domain.RiskLow, domain.RiskLow, 5, 28)},
			farmers: map[uuid.UUID]*domain.FarmerProfile{healthy.ID: healthy},
		}
		gen := newTestGenerator(store, source)

		generated, err := gen.GenerateForAllActiveFarmers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, generated)
		assert.Len(t, store.alerts, 1)
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		store := &fakeGenStore{activeIDsErr: errors.New("db down")}
		gen := newTestGenerator(store, &fakeAdvisorySource{})
		_, err := gen.GenerateForAllActiveFarmers(context.Background())
		assert.ErrorContains(t, err, "list active farmers")
	})
}
