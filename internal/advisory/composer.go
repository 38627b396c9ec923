// Package advisory computes farmer advisories: it joins a farmer profile with
// the kebele's weather window, evaluates the declarative rule set, renders the
// advisory text, and persists the result.
package advisory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/savator12/agriadapt/internal/domain"
	"github.com/savator12/agriadapt/internal/observability"
)

// Addis Ababa centroid, the coordinate of last resort when neither the farmer
// nor the kebele carries coordinates.
const (
	defaultLatitude  = 9.1450
	defaultLongitude = 38.7617
)

// Store is the persistence surface the composer needs.
type Store interface {
	FarmerByID(ctx context.Context, id uuid.UUID) (*domain.FarmerProfile, error)
	CreateAdvisory(ctx context.Context, advisory *domain.Advisory) error
}

// WeatherSource provides the forecast window for a kebele.
type WeatherSource interface {
	Snapshot(ctx context.Context, kebeleID uuid.UUID, lat, lon float64) (domain.WeatherData, error)
}

// TextRequest carries everything a text generator needs to write one advisory.
type TextRequest struct {
	Farmer   domain.FarmerProfile
	Result   domain.AdvisoryResult
	Language string
}

// TextGenerator produces localized advisory prose. Implementations may fail
// for any reason; the composer treats every failure as a signal to fall back
// to the deterministic template.
type TextGenerator interface {
	GenerateAdvisoryText(ctx context.Context, req TextRequest) (string, error)
}

// Composer orchestrates advisory computation, rendering, and persistence.
// A nil text generator means the deterministic fallback renders every
// advisory.
type Composer struct {
	store   Store
	weather WeatherSource
	textgen TextGenerator
	rules   []domain.Rule
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewComposer creates a Composer over the given collaborators.
func NewComposer(store Store, weather WeatherSource, textgen TextGenerator, rules []domain.Rule, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Composer {
	c := &Composer{
		store:   store,
		weather: weather,
		textgen: textgen,
		rules:   rules,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
	if textgen != nil {
		metrics.TextGenEnabled.Set(1)
	}
	return c
}

// Compose computes the advisory result for a farmer. The farmer's own
// coordinates take precedence over the kebele's; with neither, the Addis
// Ababa centroid seeds the forecast.
func (c *Composer) Compose(ctx context.Context, farmerID uuid.UUID) (domain.AdvisoryResult, *domain.FarmerProfile, error) {
	farmer, err := c.store.FarmerByID(ctx, farmerID)
	if err != nil {
		return domain.AdvisoryResult{}, nil, fmt.Errorf("load farmer %s: %w", farmerID, err)
	}

	lat, lon := farmerCoordinates(farmer)
	weather, err := c.weather.Snapshot(ctx, farmer.KebeleID, lat, lon)
	if err != nil {
		return domain.AdvisoryResult{}, nil, err
	}

	result := domain.BuildAdvisory(c.rules, weather, *farmer)
	c.metrics.RulesTriggered.Observe(float64(len(result.TriggeredRules)))
	return result, farmer, nil
}

// Render produces the advisory text in the requested language. With an empty
// language the farmer's registered language is used. Render never fails: any
// generator error is logged and the deterministic template takes over.
func (c *Composer) Render(ctx context.Context, result domain.AdvisoryResult, farmer *domain.FarmerProfile, language string) (string, string) {
	if language == "" {
		language = farmer.Language
	}
	if language == "" {
		language = domain.LanguageAmharic
	}

	if c.textgen != nil {
		start := c.clock.Now()
		text, err := c.textgen.GenerateAdvisoryText(ctx, TextRequest{
			Farmer:   *farmer,
			Result:   result,
			Language: language,
		})
		c.metrics.TextGenDuration.Observe(c.clock.Now().Sub(start).Seconds())
		if err == nil {
			c.metrics.TextGenRequests.WithLabelValues("success").Inc()
			return text, language
		}
		c.metrics.TextGenRequests.WithLabelValues("fallback").Inc()
		c.logger.Warn("advisory text generation failed, using fallback",
			"farmer_id", farmer.ID, "language", language, "error", err)
	}

	return domain.RenderFallbackText(result), language
}

// ComposeAndPersist runs the full advisory flow for one farmer and returns
// the stored advisory's ID.
func (c *Composer) ComposeAndPersist(ctx context.Context, farmerID uuid.UUID, language string) (uuid.UUID, error) {
	result, farmer, err := c.Compose(ctx, farmerID)
	if err != nil {
		return uuid.Nil, err
	}

	text, lang := c.Render(ctx, result, farmer, language)

	advisory, err := domain.NewAdvisory(farmer.ID, result, text, lang, c.clock.Now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.store.CreateAdvisory(ctx, advisory); err != nil {
		return uuid.Nil, fmt.Errorf("persist advisory: %w", err)
	}

	c.metrics.AdvisoriesComposed.Inc()
	c.logger.Info("advisory composed",
		"advisory_id", advisory.ID,
		"farmer_id", farmer.ID,
		"language", lang,
		"overall_risk", result.RiskSummary.OverallRisk,
		"triggered_rules", len(result.TriggeredRules))
	return advisory.ID, nil
}

// farmerCoordinates resolves the forecast seed coordinate: farmer, then
// kebele, then the national default.
func farmerCoordinates(farmer *domain.FarmerProfile) (float64, float64) {
	if farmer.Latitude != nil && farmer.Longitude != nil {
		return *farmer.Latitude, *farmer.Longitude
	}
	if k := farmer.Kebele; k != nil && k.Latitude != nil && k.Longitude != nil {
		return *k.Latitude, *k.Longitude
	}
	return defaultLatitude, defaultLongitude
}
