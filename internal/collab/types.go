// Package collab defines the contracts for the external scoring and
// generation services the pipeline calls, plus deterministic local
// implementations used when no remote service is wired in.
package collab

import (
	"context"
	"fmt"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/neuro"
)

// #region failure

// Failure wraps any collaborator error so phase joins can recognize it
// and substitute the phase default instead of aborting the tick.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("collaborator %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail wraps err as a Failure for the named stage. Returns nil for nil err.
func Fail(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Stage: stage, Err: err}
}

// #endregion failure

// #region embedder

// Embedder produces normalized vectors from raw content. Implementations
// must return unit-length vectors of the requested dimensionality.
type Embedder interface {
	// Embed maps content to a normalized fine state vector.
	Embed(ctx context.Context, content string) ([]float32, error)
	// ActionEmbed maps an action signature to a normalized action vector.
	// Deterministic: equal signatures yield equal vectors.
	ActionEmbed(ctx context.Context, signature string) ([]float32, error)
}

// #endregion embedder

// #region threat

// ThreatReport is the amygdala-style salience verdict for a stimulus.
type ThreatReport struct {
	Label    string
	RawScore float64
	Salience float64 // [0,1], gain-amplified
}

// ThreatClassifier scores content for threat salience.
type ThreatClassifier interface {
	Classify(ctx context.Context, content string) (ThreatReport, error)
}

// #endregion threat

// #region valuation

// ValuationRequest carries everything the valuator may consult.
type ValuationRequest struct {
	Content string
	Threat  ThreatReport
	Bias    memory.AggregatedBias
	Chem    neuro.Cocktail
}

// Valuation is the valuator's structured response.
type Valuation struct {
	PredictedUtility float64
	Valence          float64 // [-1,1]
	Priority         string
	Reasoning        string
}

// Valuator estimates the utility of acting on a stimulus.
type Valuator interface {
	Value(ctx context.Context, req ValuationRequest) (Valuation, error)
}

// #endregion valuation

// #region intent

// IntentRequest carries the inputs for strategic-intent estimation.
type IntentRequest struct {
	Threat ThreatReport
	Bias   memory.AggregatedBias
	Chem   neuro.State
}

// IntentDistribution maps intent names to normalized pressures.
type IntentDistribution map[string]float64

// Dominant returns the highest-pressure intent, ties broken by name.
func (d IntentDistribution) Dominant() string {
	best, bestV := "", -1.0
	for name, v := range d {
		if v > bestV || (v == bestV && name < best) {
			best, bestV = name, v
		}
	}
	return best
}

// IntentEstimator produces a strategic-intent distribution.
type IntentEstimator interface {
	Estimate(ctx context.Context, req IntentRequest) (IntentDistribution, error)
}

// #endregion intent

// #region planning

// PlanStep is one executable step of a deliberate plan.
type PlanStep struct {
	ID     int
	Action string
	Tool   string
}

// Plan is the planner's structured response.
type Plan struct {
	Steps      []PlanStep
	Confidence float64
	Reasoning  string
}

// PlanRequest carries both phase-2 outputs plus the recall bias.
type PlanRequest struct {
	Content   string
	Valuation Valuation
	Intents   IntentDistribution
	Bias      memory.AggregatedBias
}

// Planner generates a deliberate plan from valued, intent-scored input.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (Plan, error)
}

// #endregion planning
