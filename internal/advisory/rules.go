package advisory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/savator12/agriadapt/internal/domain"
)

//go:embed rules.json
var embeddedRules []byte

// ruleDocument is the on-disk rule set shape.
type ruleDocument struct {
	Rules []domain.Rule `json:"rules"`
}

// LoadRules reads and validates a rule set. With an empty path the embedded
// default rule set is used; otherwise the file at path replaces it wholesale.
func LoadRules(path string) ([]domain.Rule, error) {
	raw := embeddedRules
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file: %w", err)
		}
	}
	return ParseRules(raw)
}

// ParseRules decodes and validates a rule document. Every rule must pass
// domain validation and rule IDs must be unique; a bad document fails as a
// whole so a partial rule set never goes live.
func ParseRules(raw []byte) ([]domain.Rule, error) {
	var doc ruleDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode rules document: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules document contains no rules")
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i := range doc.Rules {
		rule := &doc.Rules[i]
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
	}
	return doc.Rules, nil
}
