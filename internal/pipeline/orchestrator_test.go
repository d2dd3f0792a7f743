package pipeline

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/collab"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
)

// #region mocks

// fixedThreat always reports the same salience.
type fixedThreat struct {
	label    string
	salience float64
}

func (f *fixedThreat) Classify(_ context.Context, _ string) (collab.ThreatReport, error) {
	return collab.ThreatReport{Label: f.label, RawScore: f.salience, Salience: f.salience}, nil
}

// countingValuator wraps a Valuator and counts invocations.
type countingValuator struct {
	inner collab.Valuator
	calls int32
	err   error
}

func (c *countingValuator) Value(ctx context.Context, req collab.ValuationRequest) (collab.Valuation, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return collab.Valuation{}, c.err
	}
	return c.inner.Value(ctx, req)
}

type countingIntents struct {
	inner collab.IntentEstimator
	calls int32
}

func (c *countingIntents) Estimate(ctx context.Context, req collab.IntentRequest) (collab.IntentDistribution, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.inner.Estimate(ctx, req)
}

type countingPlanner struct {
	inner collab.Planner
	calls int32
}

func (c *countingPlanner) Plan(ctx context.Context, req collab.PlanRequest) (collab.Plan, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.inner.Plan(ctx, req)
}

// #endregion mocks

// #region helpers

func f64(v float64) *float64 { return &v }

func testUnit(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis%dim] = 1
	return v
}

func newTestOrchestrator(t *testing.T, deps Collaborators) (*Orchestrator, *memory.Store, *cortex.Store) {
	t.Helper()
	ms, err := memory.NewStore(nil, memory.DefaultConfig())
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	cs, err := cortex.NewStore(nil, cortex.DefaultConfig())
	if err != nil {
		t.Fatalf("cortex store: %v", err)
	}
	o := New(ms, cs, deps, DefaultConfig())
	t.Cleanup(o.Close)
	return o, ms, cs
}

func seedThreatRule(t *testing.T, cs *cortex.Store, action string, confidence float64) {
	t.Helper()
	err := cs.AddRule(cortex.CorticalRule{
		Condition:  cortex.Condition{"threat_level": {Op: cortex.OpGE, Threshold: 0.8}},
		Action:     action,
		Confidence: confidence,
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}
}

// #endregion helpers

// #region reflex-tests

func TestReflexSkipsDeliberationEntirely(t *testing.T) {
	deps := LocalCollaborators()
	valuator := &countingValuator{inner: deps.Valuator}
	intents := &countingIntents{inner: deps.Intents}
	planner := &countingPlanner{inner: deps.Planner}
	deps.Valuator, deps.Intents, deps.Planner = valuator, intents, planner
	deps.Threats = &fixedThreat{label: "threat", salience: 0.85}

	o, _, cs := newTestOrchestrator(t, deps)
	seedThreatRule(t, cs, "plan_execution", 0.95)

	res, err := o.Tick(context.Background(), Stimulus{Content: "hostile contact"})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Path != PathReflex {
		t.Fatalf("path = %s, want reflex", res.Path)
	}
	if res.Action != "plan_execution" {
		t.Fatalf("action = %q", res.Action)
	}
	if valuator.calls != 0 || intents.calls != 0 || planner.calls != 0 {
		t.Fatalf("deliberation collaborators invoked on reflex path: v=%d i=%d p=%d",
			valuator.calls, intents.calls, planner.calls)
	}
	if res.ReflexRule == nil || res.ReflexRule.Confidence != 0.95 {
		t.Fatalf("reflex rule not surfaced: %+v", res.ReflexRule)
	}
}

func TestBorderlineConfidenceDoesNotReflex(t *testing.T) {
	deps := LocalCollaborators()
	planner := &countingPlanner{inner: deps.Planner}
	deps.Planner = planner
	deps.Threats = &fixedThreat{label: "threat", salience: 0.85}

	o, _, cs := newTestOrchestrator(t, deps)
	seedThreatRule(t, cs, "plan_execution", 0.9) // eligibility is strict

	res, err := o.Tick(context.Background(), Stimulus{Content: "hostile contact"})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Path != PathDeliberate {
		t.Fatalf("path = %s, want deliberate", res.Path)
	}
	if planner.calls != 1 {
		t.Fatalf("planner calls = %d", planner.calls)
	}
}

func TestEndToEndReflexScenario(t *testing.T) {
	deps := LocalCollaborators()
	deps.Threats = &fixedThreat{label: "threat", salience: 0.85}

	o, _, cs := newTestOrchestrator(t, deps)
	seedThreatRule(t, cs, "plan_execution", 0.95)

	before := o.Chem().Dopamine
	res, err := o.Tick(context.Background(), Stimulus{
		Content: "perimeter breach in progress",
		Outcome: f64(1.0), // acting worked out better than the rule promised
	})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Path != PathReflex || res.Action != "plan_execution" {
		t.Fatalf("unexpected route: path=%s action=%q", res.Path, res.Action)
	}
	if math.Abs(res.RPE-0.05) > 1e-9 {
		t.Fatalf("rpe = %f, want 0.05", res.RPE)
	}
	if o.Chem().Dopamine <= before {
		t.Fatal("positive surprise should raise dopamine")
	}
	// mild surprise stays below the write-admission gate
	if res.Stored {
		t.Fatal("low-surprise outcome should not be stored")
	}
}

// #endregion reflex-tests

// #region deliberate-tests

func TestDeliberatePathProducesPlanAndStores(t *testing.T) {
	deps := LocalCollaborators()
	o, ms, _ := newTestOrchestrator(t, deps)

	res, err := o.Tick(context.Background(), Stimulus{
		Content: "the weather is mild today",
		Outcome: f64(1.0),
	})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Path != PathDeliberate {
		t.Fatalf("path = %s", res.Path)
	}
	if len(res.Plan.Steps) == 0 {
		t.Fatal("expected a plan")
	}
	if res.PredictedUtility != res.Valuation.PredictedUtility {
		t.Fatal("predicted utility must come from the valuation")
	}
	if res.RPE <= 0.1 {
		t.Fatalf("expected a surprising outcome, rpe = %f", res.RPE)
	}
	if !res.Stored || ms.Len() != 1 {
		t.Fatalf("surprising outcome should be encoded: stored=%v len=%d", res.Stored, ms.Len())
	}
}

func TestCollaboratorFailureDegradesToDefault(t *testing.T) {
	deps := LocalCollaborators()
	valuator := &countingValuator{inner: deps.Valuator, err: errors.New("service down")}
	deps.Valuator = valuator

	o, _, _ := newTestOrchestrator(t, deps)

	res, err := o.Tick(context.Background(), Stimulus{Content: "anything"})
	if err != nil {
		t.Fatalf("tick must not abort on a collaborator failure: %v", err)
	}
	if res.Valuation.PredictedUtility != 0.5 || res.Valuation.Priority != "medium" {
		t.Fatalf("expected neutral default valuation, got %+v", res.Valuation)
	}
	if len(res.Plan.Steps) == 0 {
		t.Fatal("planning should still run with the default valuation")
	}
}

func TestNilOutcomeMeansNoSurprise(t *testing.T) {
	deps := LocalCollaborators()
	o, ms, _ := newTestOrchestrator(t, deps)

	before := o.Chem().Dopamine
	res, err := o.Tick(context.Background(), Stimulus{Content: "routine check"})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.RPE != 0 {
		t.Fatalf("rpe = %f, want 0", res.RPE)
	}
	if o.Chem().Dopamine != before {
		t.Fatal("dopamine should not move without prediction error")
	}
	if res.Stored || ms.Len() != 0 {
		t.Fatal("nothing should be stored without surprise")
	}
}

// #endregion deliberate-tests

// #region consolidation-tests

func seedCluster(t *testing.T, ms *memory.Store, n int, action string, outcome float64, ready bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		ep := &memory.EpisodicMemory{
			EpisodeID:        uuid.New().String(),
			IndexID:          int64(i + 1),
			CreatedAt:        time.Now().UTC(),
			Coarse:           testUnit(32, 0),
			Fine:             testUnit(64, 0),
			Action:           testUnit(16, 0),
			ThreatLevel:      0.9,
			Valence:          1,
			ActualUtility:    outcome,
			Reliability:      0.9,
			RecallCount:      10,
			ReadyForTransfer: ready,
			ActionSignature:  action,
			Features:         map[string]float64{"threat_level": 0.9},
		}
		if err := ms.Put(ep); err != nil {
			t.Fatalf("seed episode: %v", err)
		}
	}
}

func TestConsolidateExtractsRuleFromStableCluster(t *testing.T) {
	deps := LocalCollaborators()
	o, ms, cs := newTestOrchestrator(t, deps)
	seedCluster(t, ms, 4, "retreat", 0.9, true)

	report, err := o.Consolidate(context.Background())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if report.Clusters != 1 || report.RulesAdded != 1 {
		t.Fatalf("report = %+v", report)
	}
	if cs.Len() != 1 {
		t.Fatalf("rule count = %d", cs.Len())
	}

	rules := cs.Retrieve(map[string]float64{"threat_level": 0.95})
	if len(rules) != 1 || rules[0].Action != "retreat" {
		t.Fatalf("extracted rule not retrievable: %+v", rules)
	}
	if rules[0].SourceClusterID == "" {
		t.Fatal("rule must carry its source cluster")
	}
}

func TestConsolidateIgnoresUnreadyEpisodes(t *testing.T) {
	deps := LocalCollaborators()
	o, ms, cs := newTestOrchestrator(t, deps)
	seedCluster(t, ms, 4, "retreat", 0.9, false)

	report, err := o.Consolidate(context.Background())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if report.RulesAdded != 0 || cs.Len() != 0 {
		t.Fatalf("no rules expected: %+v", report)
	}
}

// #endregion consolidation-tests
