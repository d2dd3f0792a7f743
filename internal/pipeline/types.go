// Package pipeline drives one tick of processing: sequential sensory
// scoring, a parallel memory+rule phase, the reflex short-circuit
// decision, and (when not reflexed) parallel valuation followed by
// deliberate planning and outcome feedback.
package pipeline

import (
	"time"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/collab"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/neuro"
)

// #region path

// Path names the route a tick took to its outcome.
type Path string

const (
	PathReflex     Path = "reflex"
	PathDeliberate Path = "deliberate"
)

// #endregion path

// #region stimulus

// Stimulus is one input to the pipeline. Features are caller-supplied
// scalars merged into the rule-matching state alongside the computed
// threat level. Outcome, when set, is the observed actual utility of
// acting; when nil the tick assumes expectations were met (zero
// prediction error).
type Stimulus struct {
	Content  string
	Features map[string]float64
	Outcome  *float64
}

// #endregion stimulus

// #region tick-result

// TickResult is everything one tick produced, threaded through unchanged
// for callers and the tick log.
type TickResult struct {
	TickID string
	Path   Path
	Action string

	Threat collab.ThreatReport
	Bias   memory.AggregatedBias
	Rules  []cortex.CorticalRule

	// ReflexRule is set only on the reflex path.
	ReflexRule *cortex.CorticalRule

	// Deliberate-path outputs; zero-valued on the reflex path.
	Valuation collab.Valuation
	Intents   collab.IntentDistribution
	Plan      collab.Plan

	PredictedUtility float64
	ActualUtility    float64
	RPE              float64

	Stored bool
	Chem   neuro.State

	Elapsed time.Duration
}

// #endregion tick-result

// #region config

// Config holds orchestrator tuning knobs.
type Config struct {
	Workers    int // fixed worker pool size for phase tasks
	Extraction cortex.ExtractorConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    2,
		Extraction: cortex.DefaultExtractorConfig(),
	}
}

// #endregion config
