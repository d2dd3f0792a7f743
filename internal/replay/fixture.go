package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/pipeline"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a rule
// seed, a recorded stimulus sequence, and the expected route per tick.
type Fixture struct {
	Description string            `json:"description"`
	Rules       []FixtureRule     `json:"rules"`
	Ticks       []FixtureTick     `json:"ticks"`
	Expected    []FixtureExpected `json:"expected"`
}

// FixturePredicate mirrors cortex.Predicate with JSON tags.
type FixturePredicate struct {
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

// FixtureRule is a pre-seeded cortical rule.
type FixtureRule struct {
	Condition  map[string]FixturePredicate `json:"condition"`
	Action     string                      `json:"action"`
	Confidence float64                     `json:"confidence"`
}

// FixtureTick is one recorded stimulus. Outcome is the observed actual
// utility; omitted means expectations were met.
type FixtureTick struct {
	Content  string             `json:"content"`
	Features map[string]float64 `json:"features,omitempty"`
	Outcome  *float64           `json:"outcome,omitempty"`
}

// FixtureExpected captures the expected route per tick. An empty Action
// means the action is not checked.
type FixtureExpected struct {
	Path   string `json:"path"`
	Action string `json:"action,omitempty"`
	Stored bool   `json:"stored"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToRule converts a FixtureRule to a domain CorticalRule.
func (r FixtureRule) ToRule() cortex.CorticalRule {
	condition := make(cortex.Condition, len(r.Condition))
	for feature, pred := range r.Condition {
		condition[feature] = cortex.Predicate{Op: cortex.Op(pred.Op), Threshold: pred.Threshold}
	}
	return cortex.CorticalRule{
		Condition:  condition,
		Action:     r.Action,
		Confidence: r.Confidence,
	}
}

// ToStimulus converts a FixtureTick to a domain Stimulus.
func (t FixtureTick) ToStimulus() pipeline.Stimulus {
	return pipeline.Stimulus{
		Content:  t.Content,
		Features: t.Features,
		Outcome:  t.Outcome,
	}
}

// #endregion fixture-loader
