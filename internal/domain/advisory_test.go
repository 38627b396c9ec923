package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAdvisory(t *testing.T) {
	rules := []Rule{
		{ID: "general", Name: "General Advice", Risk: RiskLow,
			Recommendations: []string{"Check forecasts"}, Explanation: "Always applicable."},
		{ID: "drought_high_rainfed", Name: "Drought Warning", Risk: RiskHigh,
			Condition: Condition{
				Weather: &WeatherCondition{DroughtRisk: &RiskMatch{Any: []RiskLevel{RiskMedium, RiskHigh}}},
				Farmer:  &FarmerCondition{WaterAccess: ptr(WaterAccessRainFed)},
			},
			Recommendations: []string{"Mulch fields", "Harvest rainwater"},
			Explanation:     "Low rainfall expected on a rain-fed farm."},
		{ID: "heat_stress", Name: "Heat Stress", Risk: RiskMedium,
			Condition:       Condition{Weather: &WeatherCondition{MaxTemp: &TempRange{Gte: ptr(30.0)}}},
			Recommendations: []string{"Shade livestock"}, Explanation: "High temperatures ahead."},
	}

	weather := testWeather(RiskHigh, RiskLow, 33)
	weather.Forecasts = []Forecast{
		{RainfallProb: 40, RainfallMm: 2},
		{RainfallProb: 60, RainfallMm: 5},
		{RainfallProb: 20, RainfallMm: 0},
	}
	farmer := testFarmer()

	result := BuildAdvisory(rules, weather, farmer)

	t.Run("recommendations sorted by priority, stable", func(t *testing.T) {
		require.Len(t, result.Recommendations, 3)
		assert.Equal(t, "drought_high_rainfed", result.Recommendations[0].RuleID)
		assert.Equal(t, 1, result.Recommendations[0].Priority)
		assert.Equal(t, "heat_stress", result.Recommendations[1].RuleID)
		assert.Equal(t, "general", result.Recommendations[2].RuleID)
	})

	t.Run("triggered rule IDs keep original order", func(t *testing.T) {
		assert.Equal(t, []string{"general", "drought_high_rainfed", "heat_stress"}, result.TriggeredRules)
	})

	t.Run("risk summary", func(t *testing.T) {
		assert.Equal(t, RiskHigh, result.RiskSummary.OverallRisk)
		assert.Equal(t, RiskHigh, result.RiskSummary.DroughtRisk)
		assert.Equal(t, RiskLow, result.RiskSummary.FloodRisk)
		assert.Equal(t, RiskMedium, result.RiskSummary.HeatRisk)
	})

	t.Run("heat risk independent of rule matches", func(t *testing.T) {
		hot := testWeather(RiskLow, RiskLow, 36)
		res := BuildAdvisory(nil, hot, farmer)
		assert.Equal(t, RiskLow, res.RiskSummary.OverallRisk)
		assert.Equal(t, RiskHigh, res.RiskSummary.HeatRisk)
	})

	t.Run("next 7 days summary", func(t *testing.T) {
		assert.InDelta(t, 40.0, result.WeatherSummary.Next7Days.RainfallProb, 1e-9)
		assert.InDelta(t, 7.0, result.WeatherSummary.Next7Days.RainfallMm, 1e-9)
	})

	t.Run("no triggered rules", func(t *testing.T) {
		res := BuildAdvisory(nil, weather, farmer)
		assert.Empty(t, res.Recommendations)
		assert.Empty(t, res.TriggeredRules)
		assert.Equal(t, RiskLow, res.RiskSummary.OverallRisk)
	})
}

func TestSummarizeNext7Days(t *testing.T) {
	t.Run("caps at seven days", func(t *testing.T) {
		forecasts := make([]Forecast, 14)
		for i := range forecasts {
			forecasts[i] = Forecast{RainfallProb: 50, RainfallMm: 10}
		}
		got := summarizeNext7Days(forecasts)
		assert.Equal(t, 50.0, got.RainfallProb)
		assert.Equal(t, 70.0, got.RainfallMm)
	})

	t.Run("empty window", func(t *testing.T) {
		assert.Equal(t, Next7Days{}, summarizeNext7Days(nil))
	})
}

func TestRenderFallbackText(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	result := AdvisoryResult{
		RiskSummary: RiskSummary{
			OverallRisk: RiskHigh,
			DroughtRisk: RiskHigh,
			FloodRisk:   RiskLow,
			HeatRisk:    RiskMedium,
		},
		Recommendations: []Recommendation{
			{RuleID: "drought_high_rainfed", RuleName: "Drought Warning", Priority: 1,
				Actions:     []string{"Mulch fields", "Harvest rainwater"},
				Explanation: "Low rainfall expected on a rain-fed farm."},
		},
		WeatherSummary: AdvisoryWeather{
			AvgRainfall: 3.2,
			MaxTemp:     33,
			MinTemp:     18,
			Next7Days:   Next7Days{RainfallProb: 42, RainfallMm: 12.5},
		},
	}

	text := RenderFallbackText(result)

	assert.Contains(t, text, "Weather Advisory - 2026-03-15")
	assert.Contains(t, text, "Overall Risk: HIGH")
	assert.Contains(t, text, "Drought Risk: HIGH")
	assert.Contains(t, text, "Heat Risk: MEDIUM")
	assert.Contains(t, text, "- Average Rainfall: 3.2mm")
	assert.Contains(t, text, "- Temperature Range: 18°C - 33°C")
	assert.Contains(t, text, "- Next 7 Days Rainfall: 12.5mm expected")
	assert.Contains(t, text, "1. Drought Warning")
	assert.Contains(t, text, "   - Mulch fields")
	assert.Contains(t, text, "   Reason: Low rainfall expected on a rain-fed farm.")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, text, RenderFallbackText(result))
	})
}

func TestNewAdvisory(t *testing.T) {
	result := AdvisoryResult{
		RiskSummary:    RiskSummary{OverallRisk: RiskMedium, DroughtRisk: RiskMedium, FloodRisk: RiskLow, HeatRisk: RiskLow},
		TriggeredRules: []string{"general"},
		Recommendations: []Recommendation{
			{RuleID: "general", RuleName: "General Advice", Priority: 3, Actions: []string{"Check forecasts"}},
		},
	}
	farmerID := uuid.New()

	adv, err := NewAdvisory(farmerID, result, "rendered body", LanguageOromo, testNow)
	require.NoError(t, err)
	assert.Equal(t, farmerID, adv.FarmerID)
	assert.Equal(t, "rendered body", adv.RenderedText)
	assert.Equal(t, LanguageOromo, adv.Language)
	assert.Equal(t, testNow, adv.CreatedAt)
	assert.JSONEq(t, `{"overall_risk":"MEDIUM","drought_risk":"MEDIUM","flood_risk":"LOW","heat_risk":"LOW"}`, string(adv.RiskSummaryJSON))
	assert.Contains(t, string(adv.ExplanationJSON), `"triggered_rules":["general"]`)
}
