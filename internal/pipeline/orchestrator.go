package pipeline

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/collab"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/logging"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/neuro"
)

// #endregion

// #region collaborators

// Collaborators bundles the external services a tick calls through.
type Collaborators struct {
	Embedder collab.Embedder
	Threats  collab.ThreatClassifier
	Valuator collab.Valuator
	Intents  collab.IntentEstimator
	Planner  collab.Planner
	Proposer cortex.Proposer
}

// LocalCollaborators wires the in-process heuristic implementations.
func LocalCollaborators() Collaborators {
	return Collaborators{
		Embedder: collab.NewLexicalEmbedder(collab.DefaultLexicalEmbedderConfig()),
		Threats:  collab.NewKeywordClassifier(),
		Valuator: collab.NewHeuristicValuator(),
		Intents:  collab.NewHeuristicIntentEstimator(),
		Planner:  collab.NewHeuristicPlanner(),
		Proposer: collab.NewHeuristicProposer(),
	}
}

// #endregion collaborators

// #region orchestrator-struct

// Orchestrator is the top-level coordinator: it runs ticks through the
// sensory, phase-1 (recall + rules), reflex/phase-2, planning, and
// outcome stages, and owns the chemical state.
type Orchestrator struct {
	config Config
	store  *memory.Store
	rules  *cortex.Store
	deps   Collaborators
	pool   *Pool
	logDB  *sql.DB // tick provenance, optional

	chemMu sync.RWMutex
	chem   neuro.State
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator.
func New(store *memory.Store, rules *cortex.Store, deps Collaborators, config Config) *Orchestrator {
	return &Orchestrator{
		config: config,
		store:  store,
		rules:  rules,
		deps:   deps,
		pool:   NewPool(config.Workers),
		chem:   neuro.NewState(neuro.DefaultConfig()),
	}
}

// SetTickLog enables per-tick provenance logging into db.
func (o *Orchestrator) SetTickLog(db *sql.DB) error {
	if err := logging.Migrate(db); err != nil {
		return err
	}
	o.logDB = db
	return nil
}

// Close stops the worker pool.
func (o *Orchestrator) Close() {
	o.pool.Close()
}

// #endregion

// #region chemistry

// Chem returns a stable snapshot of the chemical state.
func (o *Orchestrator) Chem() neuro.State {
	o.chemMu.RLock()
	defer o.chemMu.RUnlock()
	return o.chem
}

// Regulate applies top-down focus/calm signals to the chemical state.
func (o *Orchestrator) Regulate(focus, calm bool) {
	o.chemMu.Lock()
	o.chem = o.chem.Regulate(focus, calm)
	o.chemMu.Unlock()
}

// OverrideChem sets chemical levels directly. Negative values keep the
// current level.
func (o *Orchestrator) OverrideChem(dopamine, serotonin, norepinephrine float64) {
	o.chemMu.Lock()
	o.chem = o.chem.Override(dopamine, serotonin, norepinephrine)
	o.chemMu.Unlock()
}

// #endregion chemistry

// #region tick

// Tick runs one full pass over a stimulus. Collaborator failures degrade
// to phase defaults; the only returned error is a halted memory store.
func (o *Orchestrator) Tick(ctx context.Context, stim Stimulus) (TickResult, error) {
	start := time.Now()
	res := TickResult{TickID: uuid.New().String(), Path: PathDeliberate}
	memCfg := o.store.Config()

	// Sensory stage: everything downstream needs these signals.
	fine, err := o.deps.Embedder.Embed(ctx, stim.Content)
	if err != nil {
		log.Printf("[ORCH] %v", collab.Fail("embed", err))
		fine = make([]float32, memCfg.FineDim)
	}
	threat, err := o.deps.Threats.Classify(ctx, stim.Content)
	if err != nil {
		log.Printf("[ORCH] %v", collab.Fail("threat", err))
		threat = collab.ThreatReport{}
	}
	res.Threat = threat

	features := make(map[string]float64, len(stim.Features)+1)
	for k, v := range stim.Features {
		features[k] = v
	}
	features["threat_level"] = threat.Salience

	// Phase 1: recall and rule retrieval are independent; join before
	// the reflex decision.
	o.pool.Join(
		func() { res.Bias = o.store.Recall(fine, threat.Salience, nil) },
		func() { res.Rules = o.rules.Retrieve(features) },
	)

	chem := o.Chem()

	if len(res.Rules) > 0 && o.rules.ReflexEligible(res.Rules[0]) {
		rule := res.Rules[0]
		res.Path = PathReflex
		res.ReflexRule = &rule
		res.Action = rule.Action
		res.PredictedUtility = rule.Confidence
		log.Printf("[ORCH] reflex: action=%s conf=%.2f", rule.Action, rule.Confidence)
	} else {
		o.deliberate(ctx, stim, chem, &res)
	}

	// Outcome stage: prediction error feeds the chemical state and the
	// write-admission gate.
	actual := res.PredictedUtility
	if stim.Outcome != nil {
		actual = *stim.Outcome
	}
	res.ActualUtility = actual
	res.RPE = actual - res.PredictedUtility

	o.chemMu.Lock()
	o.chem = o.chem.ApplyRPE(res.RPE)
	res.Chem = o.chem
	o.chemMu.Unlock()

	avec, err := o.deps.Embedder.ActionEmbed(ctx, res.Action)
	if err != nil || len(avec) != memCfg.ActionDim {
		if err != nil {
			log.Printf("[ORCH] %v", collab.Fail("action-embed", err))
		}
		avec = make([]float32, memCfg.ActionDim)
	}

	stored, err := o.store.MaybeStore(memory.Candidate{
		Coarse:           memory.DownProject(fine, memCfg.CoarseDim),
		Fine:             fine,
		Action:           avec,
		ThreatLevel:      threat.Salience,
		Success:          res.RPE >= 0,
		PredictedUtility: res.PredictedUtility,
		ActualUtility:    actual,
		RPE:              res.RPE,
		ActionSignature:  res.Action,
		Features:         features,
	})
	if err != nil {
		return res, fmt.Errorf("outcome store: %w", err)
	}
	res.Stored = stored
	res.Elapsed = time.Since(start)

	log.Printf("[ORCH] tick %s: path=%s action=%s rpe=%+.3f stored=%v",
		res.TickID, res.Path, res.Action, res.RPE, stored)
	o.logTick(stim, res)
	return res, nil
}

// deliberate runs phase 2 (valuation + intent, concurrent) and planning.
func (o *Orchestrator) deliberate(ctx context.Context, stim Stimulus, chem neuro.State, res *TickResult) {
	o.pool.Join(
		func() {
			v, err := o.deps.Valuator.Value(ctx, collab.ValuationRequest{
				Content: stim.Content,
				Threat:  res.Threat,
				Bias:    res.Bias,
				Chem:    chem.Cocktail(),
			})
			if err != nil {
				log.Printf("[ORCH] %v", collab.Fail("valuation", err))
				v = collab.Valuation{PredictedUtility: 0.5, Priority: "medium"}
			}
			res.Valuation = v
		},
		func() {
			d, err := o.deps.Intents.Estimate(ctx, collab.IntentRequest{
				Threat: res.Threat,
				Bias:   res.Bias,
				Chem:   chem,
			})
			if err != nil {
				log.Printf("[ORCH] %v", collab.Fail("intent", err))
				d = collab.IntentDistribution{}
			}
			res.Intents = d
		},
	)

	plan, err := o.deps.Planner.Plan(ctx, collab.PlanRequest{
		Content:   stim.Content,
		Valuation: res.Valuation,
		Intents:   res.Intents,
		Bias:      res.Bias,
	})
	if err != nil {
		log.Printf("[ORCH] %v", collab.Fail("planning", err))
		plan = collab.Plan{
			Steps:      []collab.PlanStep{{ID: 1, Action: "observe", Tool: "observe"}},
			Confidence: 0.1,
		}
	}
	res.Plan = plan
	res.Action = planAction(plan)
	res.PredictedUtility = res.Valuation.PredictedUtility
}

// planAction picks the executed action: the plan's final step.
func planAction(plan collab.Plan) string {
	if len(plan.Steps) == 0 {
		return "observe"
	}
	return plan.Steps[len(plan.Steps)-1].Action
}

// #endregion tick

// #region tick-log

func (o *Orchestrator) logTick(stim Stimulus, res TickResult) {
	if o.logDB == nil {
		return
	}

	record := logging.TickRecord{
		Content:         stim.Content,
		Features:        stim.Features,
		Familiarity:     res.Bias.Familiarity,
		ExpectedOutcome: res.Bias.ExpectedOutcome,
		RiskBias:        res.Bias.RiskBias,
		NEpisodes:       res.Bias.NEpisodes,
		RuleCount:       len(res.Rules),
		Dopamine:        res.Chem.Dopamine,
		Serotonin:       res.Chem.Serotonin,
		Norepinephrine:  res.Chem.Norepinephrine,
		Mode:            string(res.Chem.Cocktail().Mode),
	}
	if res.ReflexRule != nil {
		record.ReflexRuleKey = res.ReflexRule.Condition.Key()
		record.ReflexRuleConf = res.ReflexRule.Confidence
	}
	detail, err := json.Marshal(record)
	if err != nil {
		log.Printf("[ORCH] marshal tick record: %v", err)
		detail = nil
	}

	entry := logging.TickEntry{
		TickID:           res.TickID,
		Path:             string(res.Path),
		Action:           res.Action,
		ThreatLabel:      res.Threat.Label,
		ThreatLevel:      res.Threat.Salience,
		PredictedUtility: res.PredictedUtility,
		ActualUtility:    res.ActualUtility,
		RPE:              res.RPE,
		Stored:           res.Stored,
		DetailJSON:       string(detail),
	}
	if err := logging.LogTick(o.logDB, entry); err != nil {
		log.Printf("[ORCH] tick log: %v", err)
	}
}

// #endregion tick-log
