package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RiskSummary is the four-axis risk classification of an advisory.
type RiskSummary struct {
	OverallRisk RiskLevel `json:"overall_risk"`
	DroughtRisk RiskLevel `json:"drought_risk"`
	FloodRisk   RiskLevel `json:"flood_risk"`
	HeatRisk    RiskLevel `json:"heat_risk"`
}

// Recommendation is one triggered rule's advice, ranked by priority.
type Recommendation struct {
	RuleID      string   `json:"rule_id"`
	RuleName    string   `json:"rule_name"`
	Priority    int      `json:"priority"`
	Actions     []string `json:"actions"`
	Explanation string   `json:"explanation"`
}

// Next7Days summarizes the first week of the forecast window for alert
// thresholds and rendered text.
type Next7Days struct {
	RainfallProb float64 `json:"rainfall_prob"` // mean daily probability, 0-100
	RainfallMm   float64 `json:"rainfall_mm"`   // total depth
}

// AdvisoryWeather is the weather excerpt embedded in an advisory result.
type AdvisoryWeather struct {
	AvgRainfall float64   `json:"avg_rainfall"`
	MaxTemp     float64   `json:"max_temp"`
	MinTemp     float64   `json:"min_temp"`
	Next7Days   Next7Days `json:"next_7_days"`
}

// AdvisoryResult is a computed risk-and-recommendation profile for one
// farmer. Immutable once computed.
type AdvisoryResult struct {
	RiskSummary     RiskSummary      `json:"risk_summary"`
	Recommendations []Recommendation `json:"recommendations"`
	TriggeredRules  []string         `json:"triggered_rules"`
	WeatherSummary  AdvisoryWeather  `json:"weather_summary"`
}

// BuildAdvisory evaluates the rule set against weather and farmer and
// assembles the full advisory result. Pure and deterministic; the recommended
// actions are sorted ascending by priority with original rule order as the
// stable tie-break.
func BuildAdvisory(rules []Rule, weather WeatherData, farmer FarmerProfile) AdvisoryResult {
	triggered := EvaluateRules(rules, weather, farmer)

	recommendations := make([]Recommendation, 0, len(triggered))
	triggeredIDs := make([]string, 0, len(triggered))
	for _, rule := range triggered {
		recommendations = append(recommendations, Recommendation{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Priority:    rule.Risk.Priority(),
			Actions:     rule.Recommendations,
			Explanation: rule.Explanation,
		})
		triggeredIDs = append(triggeredIDs, rule.ID)
	}
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority < recommendations[j].Priority
	})

	return AdvisoryResult{
		RiskSummary: RiskSummary{
			OverallRisk: OverallRisk(triggered),
			DroughtRisk: weather.Summary.DroughtRisk,
			FloodRisk:   weather.Summary.FloodRisk,
			HeatRisk:    DeriveHeatRisk(weather.Summary.MaxTemp),
		},
		Recommendations: recommendations,
		TriggeredRules:  triggeredIDs,
		WeatherSummary: AdvisoryWeather{
			AvgRainfall: weather.Summary.AvgRainfall,
			MaxTemp:     weather.Summary.MaxTemp,
			MinTemp:     weather.Summary.MinTemp,
			Next7Days:   summarizeNext7Days(weather.Forecasts),
		},
	}
}

// summarizeNext7Days totals rainfall and averages probability over the first
// seven forecast days.
func summarizeNext7Days(forecasts []Forecast) Next7Days {
	days := len(forecasts)
	if days > 7 {
		days = 7
	}
	if days == 0 {
		return Next7Days{}
	}

	var probSum, mmTotal float64
	for _, f := range forecasts[:days] {
		probSum += float64(f.RainfallProb)
		mmTotal += f.RainfallMm
	}
	return Next7Days{
		RainfallProb: probSum / float64(days),
		RainfallMm:   mmTotal,
	}
}

// RenderFallbackText renders an advisory as a deterministic plain-text
// template: risk levels, weather figures, and numbered recommendations
// verbatim. Used when the text-generation collaborator is unavailable or
// fails; never fails itself.
func RenderFallbackText(result AdvisoryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Weather Advisory - %s\n\n", clock.Now().Format("2006-01-02"))

	fmt.Fprintf(&b, "Overall Risk: %s\n", result.RiskSummary.OverallRisk)
	fmt.Fprintf(&b, "Drought Risk: %s\n", result.RiskSummary.DroughtRisk)
	fmt.Fprintf(&b, "Flood Risk: %s\n", result.RiskSummary.FloodRisk)
	fmt.Fprintf(&b, "Heat Risk: %s\n\n", result.RiskSummary.HeatRisk)

	b.WriteString("Weather Summary:\n")
	fmt.Fprintf(&b, "- Average Rainfall: %.1fmm\n", result.WeatherSummary.AvgRainfall)
	fmt.Fprintf(&b, "- Temperature Range: %.0f°C - %.0f°C\n", result.WeatherSummary.MinTemp, result.WeatherSummary.MaxTemp)
	fmt.Fprintf(&b, "- Next 7 Days Rainfall: %.1fmm expected\n\n", result.WeatherSummary.Next7Days.RainfallMm)

	b.WriteString("Recommendations:\n")
	for i, rec := range result.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec.RuleName)
		for _, action := range rec.Actions {
			fmt.Fprintf(&b, "   - %s\n", action)
		}
		fmt.Fprintf(&b, "   Reason: %s\n\n", rec.Explanation)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Advisory is the persisted, timestamped form of an advisory result.
// Advisories are append-only; rows are never updated in place.
type Advisory struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FarmerID            uuid.UUID      `gorm:"type:uuid;index" json:"farmer_id"`
	RiskSummaryJSON     datatypes.JSON `json:"risk_summary"`
	RecommendationsJSON datatypes.JSON `json:"recommendations"`
	ExplanationJSON     datatypes.JSON `json:"explanation"`
	RenderedText        string         `json:"rendered_text"`
	Language            string         `json:"language"`
	CreatedAt           time.Time      `json:"created_at"`
}

// advisoryExplanation is the audit document stored alongside an advisory.
type advisoryExplanation struct {
	TriggeredRules []string        `json:"triggered_rules"`
	WeatherSummary AdvisoryWeather `json:"weather_summary"`
}

// NewAdvisory builds an advisory row from a computed result and its rendered
// text.
func NewAdvisory(farmerID uuid.UUID, result AdvisoryResult, renderedText, language string, now time.Time) (*Advisory, error) {
	riskJSON, err := json.Marshal(result.RiskSummary)
	if err != nil {
		return nil, fmt.Errorf("encode risk summary: %w", err)
	}
	recJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	explJSON, err := json.Marshal(advisoryExplanation{
		TriggeredRules: result.TriggeredRules,
		WeatherSummary: result.WeatherSummary,
	})
	if err != nil {
		return nil, fmt.Errorf("encode explanation: %w", err)
	}

	return &Advisory{
		ID:                  uuid.New(),
		FarmerID:            farmerID,
		RiskSummaryJSON:     datatypes.JSON(riskJSON),
		RecommendationsJSON: datatypes.JSON(recJSON),
		ExplanationJSON:     datatypes.JSON(explJSON),
		RenderedText:        renderedText,
		Language:            language,
		CreatedAt:           now,
	}, nil
}
