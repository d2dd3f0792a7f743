package collab

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/neuro"
)

// #region failure-tests

func TestFailureWrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := Fail("valuation", inner)
	if err == nil {
		t.Fatal("expected wrapped error")
	}
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatal("expected *Failure")
	}
	if f.Stage != "valuation" {
		t.Fatalf("stage = %q", f.Stage)
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected Is to reach the inner error")
	}
	if Fail("x", nil) != nil {
		t.Fatal("nil error must stay nil")
	}
}

// #endregion failure-tests

// #region embedder-tests

func TestEmbedDeterministicAndNormalized(t *testing.T) {
	e := NewLexicalEmbedder(DefaultLexicalEmbedderConfig())
	ctx := context.Background()

	a, err := e.Embed(ctx, "server on fire danger critical")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "server on fire danger critical")
	if len(a) != 64 {
		t.Fatalf("dim = %d", len(a))
	}
	var norm, diff float64
	for i := range a {
		norm += float64(a[i]) * float64(a[i])
		diff += math.Abs(float64(a[i]) - float64(b[i]))
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Fatalf("not unit length: %f", norm)
	}
	if diff != 0 {
		t.Fatal("embedding not deterministic")
	}
}

func TestActionEmbedDistinguishesSignatures(t *testing.T) {
	e := NewLexicalEmbedder(DefaultLexicalEmbedderConfig())
	ctx := context.Background()

	a, _ := e.ActionEmbed(ctx, "retreat")
	b, _ := e.ActionEmbed(ctx, "retreat")
	c, _ := e.ActionEmbed(ctx, "advance")
	if len(a) != 16 {
		t.Fatalf("dim = %d", len(a))
	}
	var same, cross float64
	for i := range a {
		same += float64(a[i]) * float64(b[i])
		cross += float64(a[i]) * float64(c[i])
	}
	if math.Abs(same-1) > 1e-4 {
		t.Fatalf("same signature should be identical, dot = %f", same)
	}
	if cross > 0.9 {
		t.Fatalf("distinct signatures too similar: %f", cross)
	}
}

// #endregion embedder-tests

// #region classifier-tests

func TestClassifyThreatKeywords(t *testing.T) {
	c := NewKeywordClassifier()
	rep, err := c.Classify(context.Background(), "imminent danger: critical attack underway")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rep.Label != "threat" {
		t.Fatalf("label = %q", rep.Label)
	}
	if rep.Salience <= 0.5 || rep.Salience > 1 {
		t.Fatalf("salience = %f", rep.Salience)
	}
}

func TestClassifyEmptyAndNeutral(t *testing.T) {
	c := NewKeywordClassifier()
	rep, _ := c.Classify(context.Background(), "")
	if rep.Salience != 0 || rep.Label != "" {
		t.Fatalf("empty content should be a zero report, got %+v", rep)
	}
	rep, _ = c.Classify(context.Background(), "the weather is mild today")
	if rep.Label != "novelty" {
		t.Fatalf("neutral content label = %q", rep.Label)
	}
	if rep.Salience > 0.2 {
		t.Fatalf("neutral salience too high: %f", rep.Salience)
	}
}

func TestClassifyPainOutranksThreat(t *testing.T) {
	c := NewKeywordClassifier()
	rep, _ := c.Classify(context.Background(), "severe pain after the attack")
	if rep.Label != "physical pain" {
		t.Fatalf("label = %q", rep.Label)
	}
}

// #endregion classifier-tests

// #region valuator-tests

func TestValueThreatSuppressesUtility(t *testing.T) {
	v := NewHeuristicValuator()
	ctx := context.Background()

	calm, _ := v.Value(ctx, ValuationRequest{Threat: ThreatReport{Salience: 0.0}})
	hot, _ := v.Value(ctx, ValuationRequest{Threat: ThreatReport{Salience: 0.9}})
	if hot.PredictedUtility >= calm.PredictedUtility {
		t.Fatalf("threat should suppress utility: %f vs %f", hot.PredictedUtility, calm.PredictedUtility)
	}
	if hot.Priority != "immediate" {
		t.Fatalf("priority = %q", hot.Priority)
	}
	if calm.Valence < -1 || calm.Valence > 1 {
		t.Fatalf("valence out of range: %f", calm.Valence)
	}
}

func TestValuePositiveBiasRaisesUtility(t *testing.T) {
	v := NewHeuristicValuator()
	ctx := context.Background()

	plain, _ := v.Value(ctx, ValuationRequest{})
	biased, _ := v.Value(ctx, ValuationRequest{Bias: memory.AggregatedBias{
		ExpectedOutcome: 0.8, ConfidenceBoost: 0.6,
	}})
	if biased.PredictedUtility <= plain.PredictedUtility {
		t.Fatal("positive recall bias should raise predicted utility")
	}
}

// #endregion valuator-tests

// #region intent-tests

func TestEstimateHighThreatFavorsSurvival(t *testing.T) {
	e := NewHeuristicIntentEstimator()
	dist, err := e.Estimate(context.Background(), IntentRequest{
		Threat: ThreatReport{Salience: 0.95},
		Chem:   neuro.NewState(neuro.DefaultConfig()),
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if dist.Dominant() != "survive" {
		t.Fatalf("dominant = %q, dist = %v", dist.Dominant(), dist)
	}
	var total float64
	for _, p := range dist {
		total += p
	}
	if math.Abs(total-1) > 1e-6 {
		t.Fatalf("distribution not normalized: %f", total)
	}
}

func TestEstimateCalmFavorsExploration(t *testing.T) {
	e := NewHeuristicIntentEstimator()
	state := neuro.NewState(neuro.DefaultConfig())
	dist, _ := e.Estimate(context.Background(), IntentRequest{
		Threat: ThreatReport{Salience: 0.05},
		Chem:   state,
	})
	if dist.Dominant() != "explore" {
		t.Fatalf("dominant = %q, dist = %v", dist.Dominant(), dist)
	}
}

// #endregion intent-tests

// #region planner-tests

func TestPlanHighPriorityAddsMitigation(t *testing.T) {
	p := NewHeuristicPlanner()
	plan, err := p.Plan(context.Background(), PlanRequest{
		Valuation: Valuation{Priority: "immediate", PredictedUtility: 0.3},
		Intents:   IntentDistribution{"survive": 0.9, "explore": 0.1},
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("steps = %d", len(plan.Steps))
	}
	if plan.Steps[1].Action != "mitigate_survive" {
		t.Fatalf("step action = %q", plan.Steps[1].Action)
	}
	if plan.Confidence < 0.1 || plan.Confidence > 1.0 {
		t.Fatalf("confidence out of range: %f", plan.Confidence)
	}
}

func TestPlanBackgroundStaysObservational(t *testing.T) {
	p := NewHeuristicPlanner()
	plan, _ := p.Plan(context.Background(), PlanRequest{
		Valuation: Valuation{Priority: "background"},
		Intents:   IntentDistribution{"explore": 1},
	})
	if len(plan.Steps) != 1 || plan.Steps[0].Action != "observe" {
		t.Fatalf("unexpected plan: %+v", plan.Steps)
	}
}

// #endregion planner-tests

// #region proposer-tests

func TestProposeRuleGeneralizesCluster(t *testing.T) {
	p := NewHeuristicProposer()
	cluster := []cortex.Episode{
		{Features: map[string]float64{"threat_level": 0.85, "noise": 0.1}, Action: "retreat", Outcome: 0.9},
		{Features: map[string]float64{"threat_level": 0.9, "noise": 0.2}, Action: "retreat", Outcome: 0.8},
		{Features: map[string]float64{"threat_level": 0.95, "noise": 0.05}, Action: "retreat", Outcome: 0.85},
	}
	rule, err := p.ProposeRule(context.Background(), cluster)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if rule.Action != "retreat" {
		t.Fatalf("action = %q", rule.Action)
	}
	pred, ok := rule.Condition["threat_level"]
	if !ok {
		t.Fatalf("condition missing threat_level: %v", rule.Condition)
	}
	if pred.Op != cortex.OpGE || pred.Threshold != 0.85 {
		t.Fatalf("predicate = %+v", pred)
	}
	if !rule.Condition.Matches(map[string]float64{"threat_level": 0.9, "noise": 0.1}) {
		t.Fatal("rule should replay against its own cluster")
	}
}

func TestProposeRuleRejectsEmptyAndUnshared(t *testing.T) {
	p := NewHeuristicProposer()
	if _, err := p.ProposeRule(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty cluster")
	}
	// single mid-range feature produces no floor or ceiling predicate
	cluster := []cortex.Episode{
		{Features: map[string]float64{"x": 0.4}, Action: "a", Outcome: 1},
		{Features: map[string]float64{"x": 0.6}, Action: "a", Outcome: 1},
	}
	if _, err := p.ProposeRule(context.Background(), cluster); err == nil {
		t.Fatal("expected error when no feature generalizes")
	}
}

// #endregion proposer-tests
