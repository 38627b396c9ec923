package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ForecastDays is the length of a synthesized forecast window.
const ForecastDays = 14

// SnapshotTTL is the freshness window within which a cached weather snapshot
// is reused instead of recomputed.
const SnapshotTTL = 6 * time.Hour

// Forecast is a single day's weather prediction.
type Forecast struct {
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	RainfallProb int       `json:"rainfall_prob"` // 0-100
	RainfallMm   float64   `json:"rainfall_mm"`
	TempMax      float64   `json:"temp_max"`
	TempMin      float64   `json:"temp_min"`
	Humidity     int       `json:"humidity,omitempty"`
}

// WeatherSummary aggregates a forecast window into the figures the rule
// engine evaluates.
type WeatherSummary struct {
	AvgRainfall float64   `json:"avg_rainfall"`
	MaxTemp     float64   `json:"max_temp"`
	MinTemp     float64   `json:"min_temp"`
	DroughtRisk RiskLevel `json:"drought_risk"`
	FloodRisk   RiskLevel `json:"flood_risk"`
}

// WeatherData is a full forecast window plus its derived summary.
type WeatherData struct {
	Forecasts []Forecast     `json:"forecasts"`
	Summary   WeatherSummary `json:"summary"`
}

// SynthesizeForecast generates a deterministic forecast window seeded from
// coordinates. The same (lat, lon, days) always yields the same per-day
// figures; only the calendar dates shift with now. The seed ring is
// normalized to [0,1000) so coordinate sums below zero stay deterministic.
func SynthesizeForecast(lat, lon float64, days int, now time.Time) WeatherData {
	seed := int(math.Floor((lat+lon)*1000)) % 1000
	if seed < 0 {
		seed += 1000
	}

	base := now.UTC().Truncate(24 * time.Hour)
	forecasts := make([]Forecast, days)

	var totalRain float64
	maxTemp := math.Inf(-1)
	minTemp := math.Inf(1)

	for i := 0; i < days; i++ {
		daySeed := (seed + i*7) % 100

		prob := 30 + daySeed%40
		if prob < 0 {
			prob = 0
		} else if prob > 100 {
			prob = 100
		}

		var rain float64
		if prob > 50 {
			rain = float64(daySeed % 20)
		}

		tMax := float64(25 + daySeed%10)
		tMin := tMax - 8 - float64(daySeed%5)

		start := base.AddDate(0, 0, i)
		forecasts[i] = Forecast{
			PeriodStart:  start,
			PeriodEnd:    start.AddDate(0, 0, 1),
			RainfallProb: prob,
			RainfallMm:   rain,
			TempMax:      tMax,
			TempMin:      tMin,
			Humidity:     50 + daySeed%30,
		}

		totalRain += rain
		maxTemp = math.Max(maxTemp, tMax)
		minTemp = math.Min(minTemp, tMin)
	}

	avgRainfall := totalRain / float64(days)
	heavyDays := 0
	for _, f := range forecasts {
		if f.RainfallMm > 15 {
			heavyDays++
		}
	}

	return WeatherData{
		Forecasts: forecasts,
		Summary: WeatherSummary{
			AvgRainfall: avgRainfall,
			MaxTemp:     maxTemp,
			MinTemp:     minTemp,
			DroughtRisk: DeriveDroughtRisk(avgRainfall),
			FloodRisk:   DeriveFloodRisk(heavyDays),
		},
	}
}

// DeriveDroughtRisk classifies average daily rainfall over the forecast
// window: <5mm HIGH, <10mm MEDIUM, else LOW.
func DeriveDroughtRisk(avgRainfall float64) RiskLevel {
	switch {
	case avgRainfall < 5:
		return RiskHigh
	case avgRainfall < 10:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DeriveFloodRisk classifies the count of days with rainfall above 15mm:
// >3 days HIGH, >1 day MEDIUM, else LOW.
func DeriveFloodRisk(heavyRainDays int) RiskLevel {
	switch {
	case heavyRainDays > 3:
		return RiskHigh
	case heavyRainDays > 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DeriveHeatRisk classifies the window's maximum temperature: >35°C HIGH,
// >30°C MEDIUM, else LOW. Independent of rule matching and overall risk.
func DeriveHeatRisk(maxTemp float64) RiskLevel {
	switch {
	case maxTemp > 35:
		return RiskHigh
	case maxTemp > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// WeatherSnapshot is a persisted forecast window for one kebele. Data holds
// the WeatherData document verbatim, so a cache hit returns exactly the bytes
// that were stored.
type WeatherSnapshot struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	KebeleID    uuid.UUID      `gorm:"type:uuid;index" json:"kebele_id"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Data        datatypes.JSON `json:"data"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// NewWeatherSnapshot builds a snapshot row from generated weather data.
func NewWeatherSnapshot(kebeleID uuid.UUID, lat, lon float64, data WeatherData, now time.Time) (*WeatherSnapshot, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode weather data: %w", err)
	}

	var start, end time.Time
	if len(data.Forecasts) > 0 {
		start = data.Forecasts[0].PeriodStart
		end = data.Forecasts[len(data.Forecasts)-1].PeriodEnd
	}

	return &WeatherSnapshot{
		ID:          uuid.New(),
		KebeleID:    kebeleID,
		Latitude:    lat,
		Longitude:   lon,
		PeriodStart: start,
		PeriodEnd:   end,
		Data:        datatypes.JSON(raw),
		CreatedAt:   now,
	}, nil
}

// Weather decodes the stored forecast document.
func (s *WeatherSnapshot) Weather() (WeatherData, error) {
	var data WeatherData
	if err := json.Unmarshal(s.Data, &data); err != nil {
		return WeatherData{}, fmt.Errorf("decode weather snapshot %s: %w", s.ID, err)
	}
	return data, nil
}
