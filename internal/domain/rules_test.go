package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testWeather(drought, flood RiskLevel, maxTemp float64) WeatherData {
	return WeatherData{
		Summary: WeatherSummary{
			AvgRainfall: 6,
			MaxTemp:     maxTemp,
			MinTemp:     maxTemp - 12,
			DroughtRisk: drought,
			FloodRisk:   flood,
		},
	}
}

func testFarmer() FarmerProfile {
	return FarmerProfile{
		FullName:    "Abebe Kebede",
		FarmType:    FarmTypeCrop,
		CropType:    ptr("teff"),
		SoilType:    ptr("clay"),
		WaterAccess: WaterAccessRainFed,
		Language:    LanguageAmharic,
	}
}

func TestRiskMatchJSON(t *testing.T) {
	t.Run("bare string", func(t *testing.T) {
		var m RiskMatch
		require.NoError(t, json.Unmarshal([]byte(`"HIGH"`), &m))
		assert.Equal(t, []RiskLevel{RiskHigh}, m.Any)
	})

	t.Run("array", func(t *testing.T) {
		var m RiskMatch
		require.NoError(t, json.Unmarshal([]byte(`["MEDIUM","HIGH"]`), &m))
		assert.Equal(t, []RiskLevel{RiskMedium, RiskHigh}, m.Any)
	})

	t.Run("rejects objects", func(t *testing.T) {
		var m RiskMatch
		assert.Error(t, json.Unmarshal([]byte(`{"any":"HIGH"}`), &m))
	})

	t.Run("single value marshals compact", func(t *testing.T) {
		raw, err := json.Marshal(RiskMatch{Any: []RiskLevel{RiskHigh}})
		require.NoError(t, err)
		assert.Equal(t, `"HIGH"`, string(raw))
	})
}

func TestConditionMatches(t *testing.T) {
	weather := testWeather(RiskHigh, RiskLow, 33)
	farmer := testFarmer()

	t.Run("empty condition matches everything", func(t *testing.T) {
		c := Condition{}
		assert.True(t, c.Matches(weather, farmer))
	})

	t.Run("risk set membership", func(t *testing.T) {
		c := Condition{
			Weather: &WeatherCondition{
				DroughtRisk: &RiskMatch{Any: []RiskLevel{RiskMedium, RiskHigh}},
			},
			Farmer: &FarmerCondition{WaterAccess: ptr(WaterAccessRainFed)},
		}
		assert.True(t, c.Matches(weather, farmer))

		lowDrought := testWeather(RiskLow, RiskLow, 33)
		assert.False(t, c.Matches(lowDrought, farmer))

		irrigated := farmer
		irrigated.WaterAccess = WaterAccessIrrigation
		assert.False(t, c.Matches(weather, irrigated))
	})

	t.Run("temperature bounds", func(t *testing.T) {
		c := Condition{Weather: &WeatherCondition{MaxTemp: &TempRange{Gte: ptr(30.0)}}}
		assert.True(t, c.Matches(testWeather(RiskLow, RiskLow, 33), farmer))
		assert.False(t, c.Matches(testWeather(RiskLow, RiskLow, 29), farmer))

		c = Condition{Weather: &WeatherCondition{MaxTemp: &TempRange{Gte: ptr(0.0), Lte: ptr(10.0)}}}
		assert.True(t, c.Matches(testWeather(RiskLow, RiskLow, 5), farmer))
		assert.False(t, c.Matches(testWeather(RiskLow, RiskLow, -2), farmer))
	})

	t.Run("absent optional farmer field fails a present condition", func(t *testing.T) {
		c := Condition{Farmer: &FarmerCondition{CropType: ptr("teff")}}
		assert.True(t, c.Matches(weather, farmer))

		noCrop := farmer
		noCrop.CropType = nil
		assert.False(t, c.Matches(weather, noCrop))
	})

	t.Run("all present sub-conditions must hold", func(t *testing.T) {
		c := Condition{
			Weather: &WeatherCondition{DroughtRisk: &RiskMatch{Any: []RiskLevel{RiskHigh}}},
			Farmer:  &FarmerCondition{FarmType: ptr(FarmTypeLivestock)},
		}
		assert.False(t, c.Matches(weather, farmer))
	})
}

func TestEvaluateRules(t *testing.T) {
	rules := []Rule{
		{ID: "heat_stress", Name: "Heat Stress", Risk: RiskMedium,
			Condition:       Condition{Weather: &WeatherCondition{MaxTemp: &TempRange{Gte: ptr(30.0)}}},
			Recommendations: []string{"Shade livestock"}},
		{ID: "drought_high_rainfed", Name: "Drought Warning", Risk: RiskHigh,
			Condition: Condition{
				Weather: &WeatherCondition{DroughtRisk: &RiskMatch{Any: []RiskLevel{RiskMedium, RiskHigh}}},
				Farmer:  &FarmerCondition{WaterAccess: ptr(WaterAccessRainFed)},
			},
			Recommendations: []string{"Mulch fields"}},
		{ID: "general", Name: "General Advice", Risk: RiskLow,
			Recommendations: []string{"Check forecasts"}},
	}
	weather := testWeather(RiskHigh, RiskLow, 33)
	farmer := testFarmer()

	t.Run("all matches kept in original order", func(t *testing.T) {
		triggered := EvaluateRules(rules, weather, farmer)
		require.Len(t, triggered, 3)
		assert.Equal(t, "heat_stress", triggered[0].ID)
		assert.Equal(t, "drought_high_rainfed", triggered[1].ID)
		assert.Equal(t, "general", triggered[2].ID)
	})

	t.Run("non-matching rules excluded", func(t *testing.T) {
		irrigated := farmer
		irrigated.WaterAccess = WaterAccessIrrigation
		triggered := EvaluateRules(rules, weather, irrigated)
		require.Len(t, triggered, 2)
		assert.Equal(t, "heat_stress", triggered[0].ID)
		assert.Equal(t, "general", triggered[1].ID)
	})

	t.Run("pure across repeated calls", func(t *testing.T) {
		first := EvaluateRules(rules, weather, farmer)
		second := EvaluateRules(rules, weather, farmer)
		assert.Equal(t, first, second)
	})
}

func TestOverallRisk(t *testing.T) {
	assert.Equal(t, RiskLow, OverallRisk(nil))
	assert.Equal(t, RiskLow, OverallRisk([]Rule{{Risk: RiskLow}}))
	assert.Equal(t, RiskMedium, OverallRisk([]Rule{{Risk: RiskLow}, {Risk: RiskMedium}}))
	assert.Equal(t, RiskHigh, OverallRisk([]Rule{{Risk: RiskMedium}, {Risk: RiskHigh}, {Risk: RiskLow}}))
}

func TestRiskLevelPriority(t *testing.T) {
	assert.Equal(t, 1, RiskHigh.Priority())
	assert.Equal(t, 2, RiskMedium.Priority())
	assert.Equal(t, 3, RiskLow.Priority())
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{
		ID: "r1", Name: "Rule One", Risk: RiskMedium,
		Recommendations: []string{"do something"},
	}

	t.Run("accepts well-formed rule", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		r := valid
		r.ID = ""
		assert.Error(t, r.Validate())

		r = valid
		r.Name = ""
		assert.Error(t, r.Validate())

		r = valid
		r.Risk = "SEVERE"
		assert.Error(t, r.Validate())

		r = valid
		r.Recommendations = nil
		assert.Error(t, r.Validate())
	})

	t.Run("rejects empty risk set", func(t *testing.T) {
		r := valid
		r.Condition.Weather = &WeatherCondition{DroughtRisk: &RiskMatch{}}
		assert.Error(t, r.Validate())
	})

	t.Run("rejects unbounded temp range", func(t *testing.T) {
		r := valid
		r.Condition.Weather = &WeatherCondition{MaxTemp: &TempRange{}}
		assert.Error(t, r.Validate())
	})

	t.Run("rejects invalid farmer enums", func(t *testing.T) {
		r := valid
		bad := WaterAccess("WELL")
		r.Condition.Farmer = &FarmerCondition{WaterAccess: &bad}
		assert.Error(t, r.Validate())
	})
}
