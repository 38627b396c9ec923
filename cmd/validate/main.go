// Command validate lints an advisory rule document before it goes live. It
// checks document structure, per-rule validity, and then sweeps a scenario
// matrix of weather summaries and farmer profiles to prove every rule is
// reachable and no two rules are interchangeable.
//
// Usage:
//
//	go run ./cmd/validate -rules config/rules.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/savator12/agriadapt/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rulesPath := flag.String("rules", "", "path to the rules JSON document")
	flag.Parse()

	if *rulesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rulesPath); code != 0 {
		os.Exit(code)
	}
}

func run(rulesPath string) int {
	fmt.Println("=== Advisory Rule Set Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read rules file: %v\n", err)
		return 1
	}

	structure, rules := validateStructure(raw)

	phases := []*phase{structure}
	scenarios := buildScenarios()
	if structure.passed() {
		phases = append(phases,
			validateRules(rules),
			validateReachability(rules, scenarios),
			validateDistinctness(rules, scenarios),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rules: %d, scenarios swept: %d\n", len(rules), len(scenarios))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Document Structure ──
// The document must decode and carry a non-empty rules array.

func validateStructure(raw []byte) (*phase, []domain.Rule) {
	p := &phase{name: "Phase 1: Document Structure"}

	var doc struct {
		Rules []domain.Rule `json:"rules"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		p.errorf("decode rules document: %v", err)
		return p, nil
	}
	if len(doc.Rules) == 0 {
		p.errorf("rules document contains no rules")
	}
	return p, doc.Rules
}

// ── Phase 2: Rule Validity ──
// Every rule must pass domain validation, IDs must be unique, and the text
// fields the farmer sees must be present and non-repeating.

func validateRules(rules []domain.Rule) *phase {
	p := &phase{name: "Phase 2: Rule Validity"}

	seen := map[string]bool{}
	for i := range rules {
		rule := &rules[i]
		if err := rule.Validate(); err != nil {
			p.errorf("rule %d: %v", i, err)
			continue
		}
		if seen[rule.ID] {
			p.errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true

		if rule.Explanation == "" {
			p.errorf("rule %s: missing explanation", rule.ID)
		}
		recs := map[string]bool{}
		for j, rec := range rule.Recommendations {
			if rec == "" {
				p.errorf("rule %s: recommendation %d is empty", rule.ID, j)
				continue
			}
			if recs[rec] {
				p.errorf("rule %s: duplicate recommendation %q", rule.ID, rec)
			}
			recs[rec] = true
		}
	}
	return p
}

// ── Phase 3: Reachability ──
// Every rule must fire for at least one scenario in the sweep. A rule that
// never fires is either dead configuration or a typo in its condition.

func validateReachability(rules []domain.Rule, scenarios []scenario) *phase {
	p := &phase{name: "Phase 3: Reachability (scenario sweep)"}

	fired := map[string]bool{}
	unmatched := 0
	for _, sc := range scenarios {
		triggered := domain.EvaluateRules(rules, sc.weather, sc.farmer)
		if len(triggered) == 0 {
			unmatched++
		}
		for _, rule := range triggered {
			fired[rule.ID] = true
		}
	}

	if unmatched > 0 {
		fmt.Printf("  Note: %d scenario(s) matched no rule (served by the generic fallback)\n", unmatched)
	}

	for _, rule := range rules {
		if !fired[rule.ID] {
			p.errorf("rule %s never fires across %d scenarios", rule.ID, len(scenarios))
		}
	}
	return p
}

// ── Phase 4: Distinctness ──
// No two rules may match exactly the same scenario set; such a pair is
// redundant and one of the two is probably misconfigured.

func validateDistinctness(rules []domain.Rule, scenarios []scenario) *phase {
	p := &phase{name: "Phase 4: Distinctness (overlap check)"}

	signatures := map[string]string{}
	for _, rule := range rules {
		sig := make([]byte, len(scenarios))
		for i, sc := range scenarios {
			if rule.Condition.Matches(sc.weather, sc.farmer) {
				sig[i] = '1'
			} else {
				sig[i] = '0'
			}
		}
		key := string(sig)
		if other, ok := signatures[key]; ok {
			p.errorf("rules %s and %s match the same scenario set", other, rule.ID)
			continue
		}
		signatures[key] = rule.ID
	}
	return p
}

// ── Scenario matrix ──

// scenario is one weather/farmer combination from the sweep grid.
type scenario struct {
	weather domain.WeatherData
	farmer  domain.FarmerProfile
}

// buildScenarios crosses every risk level pair with representative
// temperatures and farmer profiles. Rule conditions only read the weather
// summary, so the forecast slice stays empty.
func buildScenarios() []scenario {
	levels := []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}
	temps := []float64{25, 34, 40}
	waterModes := []domain.WaterAccess{domain.WaterAccessRainFed, domain.WaterAccessIrrigation, domain.WaterAccessMixed}
	farmTypes := []domain.FarmType{domain.FarmTypeCrop, domain.FarmTypeLivestock, domain.FarmTypeMixed}
	crops := []string{"teff", "maize"}
	soils := []string{"clay", "loam"}

	var farmers []domain.FarmerProfile
	for _, water := range waterModes {
		for _, farmType := range farmTypes {
			for _, crop := range crops {
				for _, soil := range soils {
					farmers = append(farmers, domain.FarmerProfile{
						ID:          uuid.New(),
						FarmType:    farmType,
						CropType:    &crop,
						SoilType:    &soil,
						WaterAccess: water,
					})
				}
			}
		}
	}

	var scenarios []scenario
	for _, drought := range levels {
		for _, flood := range levels {
			for _, temp := range temps {
				weather := domain.WeatherData{
					Summary: domain.WeatherSummary{
						DroughtRisk: drought,
						FloodRisk:   flood,
						MaxTemp:     temp,
						MinTemp:     temp - 12,
					},
				}
				for _, farmer := range farmers {
					scenarios = append(scenarios, scenario{weather: weather, farmer: farmer})
				}
			}
		}
	}
	return scenarios
}
