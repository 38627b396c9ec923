package domain

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the three-step risk scale used across all risk axes.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Priority maps a risk level to its recommendation priority: HIGH=1,
// MEDIUM=2, LOW=3. Lower sorts first.
func (r RiskLevel) Priority() int {
	switch r {
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	default:
		return 3
	}
}

// RiskMatch is a risk-level condition that accepts either a single value or a
// set. In JSON it deserializes from "HIGH" or ["MEDIUM","HIGH"].
type RiskMatch struct {
	Any []RiskLevel
}

// UnmarshalJSON accepts a bare string or an array of strings.
func (m *RiskMatch) UnmarshalJSON(data []byte) error {
	var single RiskLevel
	if err := json.Unmarshal(data, &single); err == nil {
		m.Any = []RiskLevel{single}
		return nil
	}
	var set []RiskLevel
	if err := json.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("risk condition must be a string or array of strings")
	}
	m.Any = set
	return nil
}

// MarshalJSON emits the compact form: a bare string for single-value matches.
func (m RiskMatch) MarshalJSON() ([]byte, error) {
	if len(m.Any) == 1 {
		return json.Marshal(m.Any[0])
	}
	return json.Marshal(m.Any)
}

// Matches reports whether level is in the accepted set. An empty set matches
// nothing; wildcards are expressed by omitting the condition entirely.
func (m *RiskMatch) Matches(level RiskLevel) bool {
	for _, want := range m.Any {
		if want == level {
			return true
		}
	}
	return false
}

// TempRange bounds the forecast window's maximum temperature. Bounds are
// pointers so that a zero bound is a real bound, not an absent one.
type TempRange struct {
	Gte *float64 `json:"gte,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

// Matches reports whether temp satisfies both present bounds.
func (t *TempRange) Matches(temp float64) bool {
	if t.Gte != nil && temp < *t.Gte {
		return false
	}
	if t.Lte != nil && temp > *t.Lte {
		return false
	}
	return true
}

// WeatherCondition constrains the weather summary. Nil fields are wildcards.
type WeatherCondition struct {
	DroughtRisk *RiskMatch `json:"droughtRisk,omitempty"`
	FloodRisk   *RiskMatch `json:"floodRisk,omitempty"`
	MaxTemp     *TempRange `json:"maxTemp,omitempty"`
}

// FarmerCondition constrains the farmer profile with exact-match tests.
// Nil fields are wildcards.
type FarmerCondition struct {
	WaterAccess *WaterAccess `json:"waterAccess,omitempty"`
	SoilType    *string      `json:"soilType,omitempty"`
	CropType    *string      `json:"cropType,omitempty"`
	FarmType    *FarmType    `json:"farmType,omitempty"`
}

// Condition is a rule's predicate over weather and farmer fields.
type Condition struct {
	Weather *WeatherCondition `json:"weather,omitempty"`
	Farmer  *FarmerCondition  `json:"farmer,omitempty"`
}

// Matches reports whether every present sub-condition holds for the given
// weather and farmer. Absent sub-conditions match anything.
func (c *Condition) Matches(weather WeatherData, farmer FarmerProfile) bool {
	if w := c.Weather; w != nil {
		if w.DroughtRisk != nil && !w.DroughtRisk.Matches(weather.Summary.DroughtRisk) {
			return false
		}
		if w.FloodRisk != nil && !w.FloodRisk.Matches(weather.Summary.FloodRisk) {
			return false
		}
		if w.MaxTemp != nil && !w.MaxTemp.Matches(weather.Summary.MaxTemp) {
			return false
		}
	}

	if f := c.Farmer; f != nil {
		if f.WaterAccess != nil && *f.WaterAccess != farmer.WaterAccess {
			return false
		}
		if f.SoilType != nil && (farmer.SoilType == nil || *f.SoilType != *farmer.SoilType) {
			return false
		}
		if f.CropType != nil && (farmer.CropType == nil || *f.CropType != *farmer.CropType) {
			return false
		}
		if f.FarmType != nil && *f.FarmType != farmer.FarmType {
			return false
		}
	}

	return true
}

// Rule is one entry of the declarative advisory rule set, read-only at
// evaluation time.
type Rule struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Condition       Condition `json:"condition"`
	Risk            RiskLevel `json:"risk"`
	Recommendations []string  `json:"recommendations"`
	Explanation     string    `json:"explanation"`
}

// Validate checks the rule's shape at load time so malformed configuration
// fails fast instead of silently never matching.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule missing id")
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: missing name", r.ID)
	}
	if !r.Risk.Valid() {
		return fmt.Errorf("rule %s: invalid risk %q", r.ID, r.Risk)
	}
	if len(r.Recommendations) == 0 {
		return fmt.Errorf("rule %s: no recommendations", r.ID)
	}
	if w := r.Condition.Weather; w != nil {
		for _, match := range []*RiskMatch{w.DroughtRisk, w.FloodRisk} {
			if match == nil {
				continue
			}
			if len(match.Any) == 0 {
				return fmt.Errorf("rule %s: empty risk set", r.ID)
			}
			for _, level := range match.Any {
				if !level.Valid() {
					return fmt.Errorf("rule %s: invalid risk level %q", r.ID, level)
				}
			}
		}
		if t := w.MaxTemp; t != nil && t.Gte == nil && t.Lte == nil {
			return fmt.Errorf("rule %s: maxTemp condition with no bounds", r.ID)
		}
	}
	if f := r.Condition.Farmer; f != nil {
		if f.WaterAccess != nil && !f.WaterAccess.Valid() {
			return fmt.Errorf("rule %s: invalid waterAccess %q", r.ID, *f.WaterAccess)
		}
		if f.FarmType != nil && !f.FarmType.Valid() {
			return fmt.Errorf("rule %s: invalid farmType %q", r.ID, *f.FarmType)
		}
	}
	return nil
}

// EvaluateRules returns every rule whose condition matches, in original rule
// order. All matches are kept; multiple simultaneous recommendations are
// intentional. Pure: identical inputs always yield identical output.
func EvaluateRules(rules []Rule, weather WeatherData, farmer FarmerProfile) []Rule {
	var triggered []Rule
	for _, rule := range rules {
		if rule.Condition.Matches(weather, farmer) {
			triggered = append(triggered, rule)
		}
	}
	return triggered
}

// OverallRisk folds triggered rules to the highest risk present: HIGH if any
// rule is HIGH, else MEDIUM if any is MEDIUM, else LOW (also the zero-rule
// default).
func OverallRisk(triggered []Rule) RiskLevel {
	overall := RiskLow
	for _, rule := range triggered {
		switch rule.Risk {
		case RiskHigh:
			return RiskHigh
		case RiskMedium:
			overall = RiskMedium
		}
	}
	return overall
}
