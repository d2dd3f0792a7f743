package pipeline

// #region imports
import (
	"context"
	"fmt"
	"log"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
)

// #endregion

// #region report

// ConsolidationReport summarizes one sleep cycle.
type ConsolidationReport struct {
	Episodes   int // live episodes after tag decay
	Clusters   int // transfer-ready clusters examined
	RulesAdded int
}

// #endregion report

// #region consolidate

// Consolidate runs one sleep cycle: dopamine-tag decay, clustering of
// transfer-ready episodes, rule extraction with replay validation, and
// admission of surviving rules into the cortical store.
func (o *Orchestrator) Consolidate(ctx context.Context) (ConsolidationReport, error) {
	o.store.Consolidate()

	cfg := o.store.Config()
	extractor := cortex.NewExtractor(o.deps.Proposer, o.config.Extraction)
	report := ConsolidationReport{Episodes: o.store.Len()}

	for i, cluster := range o.store.Clusters() {
		ready := make([]cortex.Episode, 0, len(cluster))
		for _, ep := range cluster {
			if !ep.ReadyForTransfer {
				continue
			}
			ready = append(ready, cortex.Episode{
				Features: ep.Features,
				Action:   ep.ActionSignature,
				Outcome:  ep.ActualUtility,
			})
		}
		if len(ready) < cfg.ClusterMinSize {
			continue
		}
		report.Clusters++

		rule, ok := extractor.Extract(ctx, ready, cortex.ClusterID(i))
		if !ok {
			continue
		}
		if err := o.rules.AddRule(rule); err != nil {
			return report, fmt.Errorf("admit rule: %w", err)
		}
		report.RulesAdded++
		log.Printf("[ORCH] consolidation: admitted rule from %s (action=%s conf=%.2f)",
			rule.SourceClusterID, rule.Action, rule.Confidence)
	}

	return report, nil
}

// #endregion consolidate
