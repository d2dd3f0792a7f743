package collab

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
)

// Local collaborator implementations. These are the in-process fallbacks:
// cheap deterministic heuristics standing in for the remote scoring and
// generation services, good enough to drive the pipeline end to end.

// #region embedder

// LexicalEmbedderConfig holds dimensionalities for the local embedder.
type LexicalEmbedderConfig struct {
	StateDim  int
	ActionDim int
}

// DefaultLexicalEmbedderConfig matches the store's default dimensions.
func DefaultLexicalEmbedderConfig() LexicalEmbedderConfig {
	return LexicalEmbedderConfig{StateDim: 64, ActionDim: 16}
}

// LexicalEmbedder hashes tokens into a fixed-width signed bag-of-words
// vector. Equal content always maps to the same vector.
type LexicalEmbedder struct {
	config LexicalEmbedderConfig
}

// NewLexicalEmbedder creates a LexicalEmbedder.
func NewLexicalEmbedder(config LexicalEmbedderConfig) *LexicalEmbedder {
	return &LexicalEmbedder{config: config}
}

// Embed maps content to a normalized StateDim vector.
func (e *LexicalEmbedder) Embed(_ context.Context, content string) ([]float32, error) {
	vec := make([]float32, e.config.StateDim)
	for _, tok := range tokenize(content) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.config.StateDim))
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}
	return memory.Normalize(vec), nil
}

// ActionEmbed maps an action signature to a normalized ActionDim vector
// drawn from a PRNG seeded by the signature hash.
func (e *LexicalEmbedder) ActionEmbed(_ context.Context, signature string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(signature))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	vec := make([]float32, e.config.ActionDim)
	for i := range vec {
		vec[i] = float32(r.NormFloat64())
	}
	return memory.Normalize(vec), nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// #endregion embedder

// #region threat-classifier

// threatClass couples a label with its keyword cues and salience gain.
type threatClass struct {
	label    string
	keywords []string
	gain     float64
}

// KeywordClassifier is the lexical stand-in for the zero-shot threat
// classifier. Salience is raw match strength amplified by a per-label
// gain and capped at 1.
type KeywordClassifier struct {
	classes []threatClass
}

// NewKeywordClassifier creates a KeywordClassifier with the default
// label set and gains.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{classes: []threatClass{
		{"physical pain", []string{"pain", "hurt", "injury", "burn"}, 1.2},
		{"threat", []string{"threat", "danger", "attack", "critical", "failure", "emergency"}, 1.0},
		{"social conflict", []string{"conflict", "argument", "blame", "hostile"}, 0.5},
		{"high reward", []string{"reward", "gain", "success", "opportunity"}, 0.3},
		{"novelty", nil, 0.1},
	}}
}

// Classify scores content against the keyword classes. The first class
// with a hit wins (classes are ordered by severity); no hit falls
// through to novelty.
func (c *KeywordClassifier) Classify(_ context.Context, content string) (ThreatReport, error) {
	if content == "" {
		return ThreatReport{}, nil
	}
	lower := strings.ToLower(content)
	for _, class := range c.classes {
		hits := 0
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits == 0 && class.keywords != nil {
			continue
		}
		raw := 0.5
		if class.keywords != nil {
			raw = math.Min(0.6+0.3*float64(hits), 1.0)
		}
		return ThreatReport{
			Label:    class.label,
			RawScore: raw,
			Salience: math.Min(raw*class.gain, 1.0),
		}, nil
	}
	return ThreatReport{Label: "novelty", RawScore: 0.5, Salience: 0.05}, nil
}

// #endregion threat-classifier

// #region valuator

// HeuristicValuator blends the recall bias, threat salience and the
// chemical cocktail into a utility estimate.
type HeuristicValuator struct{}

// NewHeuristicValuator creates a HeuristicValuator.
func NewHeuristicValuator() *HeuristicValuator { return &HeuristicValuator{} }

// Value computes predicted utility and a priority band.
func (v *HeuristicValuator) Value(_ context.Context, req ValuationRequest) (Valuation, error) {
	utility := 0.5
	utility += 0.3 * req.Bias.ExpectedOutcome
	utility += 0.1 * req.Bias.ConfidenceBoost
	utility += 0.2 * req.Bias.RiskBias
	utility -= 0.4 * req.Threat.Salience
	utility = clamp01(utility)

	valence := 2*utility - 1
	return Valuation{
		PredictedUtility: utility,
		Valence:          valence,
		Priority:         priorityBand(utility, req.Threat.Salience),
		Reasoning:        "local heuristic valuation",
	}, nil
}

func priorityBand(utility, salience float64) string {
	switch {
	case salience > 0.8:
		return "immediate"
	case salience > 0.5 || utility > 0.8:
		return "high"
	case utility > 0.5:
		return "medium"
	case utility > 0.2:
		return "low"
	default:
		return "background"
	}
}

// #endregion valuator

// #region intent-estimator

// HeuristicIntentEstimator derives a strategic-intent distribution from
// competing pressure functions, vmPFC style.
type HeuristicIntentEstimator struct{}

// NewHeuristicIntentEstimator creates a HeuristicIntentEstimator.
func NewHeuristicIntentEstimator() *HeuristicIntentEstimator {
	return &HeuristicIntentEstimator{}
}

// Estimate computes normalized pressures for the four base intents.
func (e *HeuristicIntentEstimator) Estimate(_ context.Context, req IntentRequest) (IntentDistribution, error) {
	threat := req.Threat.Salience
	pressures := IntentDistribution{
		"survive":  0.1 + math.Pow(threat, 3)*(2.5-req.Chem.Serotonin),
		"explore":  spike(req.Chem.Dopamine * (1 - threat)),
		"exploit":  spike(math.Max(req.Bias.ExpectedOutcome, 0) * req.Bias.Confidence),
		"withdraw": spike(math.Max(-req.Bias.RiskBias, 0) * req.Chem.Norepinephrine),
	}
	var total float64
	for _, p := range pressures {
		total += p
	}
	if total > 0 {
		for k := range pressures {
			pressures[k] /= total
		}
	}
	return pressures, nil
}

// spike compresses [0,1] while amplifying extremes.
func spike(x float64) float64 {
	return math.Tanh(3 * x)
}

// #endregion intent-estimator

// #region planner

// HeuristicPlanner produces a reactive plan: one step per dominant
// concern, confidence penalized by threat.
type HeuristicPlanner struct{}

// NewHeuristicPlanner creates a HeuristicPlanner.
func NewHeuristicPlanner() *HeuristicPlanner { return &HeuristicPlanner{} }

// Plan assembles steps from the valuation priority and dominant intent.
func (p *HeuristicPlanner) Plan(_ context.Context, req PlanRequest) (Plan, error) {
	steps := []PlanStep{{ID: 1, Action: "observe", Tool: "observe"}}
	switch req.Valuation.Priority {
	case "immediate", "high":
		steps = append(steps, PlanStep{ID: 2, Action: "mitigate_" + req.Intents.Dominant(), Tool: "act"})
	case "medium":
		steps = append(steps, PlanStep{ID: 2, Action: "pursue_" + req.Intents.Dominant(), Tool: "act"})
	}

	base := 0.5 + 0.3*req.Valuation.PredictedUtility + 0.2*req.Bias.Confidence
	threatPenalty := 0.4 * req.Bias.Familiarity * math.Max(-req.Bias.RiskBias, 0)
	confidence := math.Max(0.1, math.Min(1.0, base-threatPenalty))

	return Plan{Steps: steps, Confidence: confidence, Reasoning: "reactive plan"}, nil
}

// #endregion planner

// #region helpers

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// #endregion helpers
