package collab

import (
	"context"
	"errors"
	"sort"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
)

// #region proposer

// HeuristicProposer is the local stand-in for the LLM rule-drafting
// service. It generalizes a cluster into a threshold rule: the majority
// action, guarded by the features that hold across most of the cluster.
type HeuristicProposer struct {
	// MinFeatureCoverage is the fraction of the cluster a feature must
	// appear in to become part of the condition.
	MinFeatureCoverage float64
}

// NewHeuristicProposer creates a HeuristicProposer with default coverage.
func NewHeuristicProposer() *HeuristicProposer {
	return &HeuristicProposer{MinFeatureCoverage: 0.8}
}

// ProposeRule drafts a rule from the cluster. Errors when the cluster is
// empty or no feature is shared widely enough to form a condition.
func (p *HeuristicProposer) ProposeRule(_ context.Context, cluster []cortex.Episode) (cortex.CorticalRule, error) {
	if len(cluster) == 0 {
		return cortex.CorticalRule{}, errors.New("empty cluster")
	}

	action := majorityAction(cluster)
	condition := p.sharedCondition(cluster)
	if len(condition) == 0 {
		return cortex.CorticalRule{}, errors.New("no shared features to generalize")
	}

	var sum float64
	for _, ep := range cluster {
		sum += ep.Outcome
	}
	confidence := clamp01(sum / float64(len(cluster)))

	return cortex.CorticalRule{
		Condition:  condition,
		Action:     action,
		Confidence: confidence,
	}, nil
}

// majorityAction returns the most common action, ties broken by name.
func majorityAction(cluster []cortex.Episode) string {
	counts := make(map[string]int)
	for _, ep := range cluster {
		counts[ep.Action]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	best, bestN := "", 0
	for _, name := range names {
		if counts[name] > bestN {
			best, bestN = name, counts[name]
		}
	}
	return best
}

// sharedCondition builds threshold predicates from features present in
// at least MinFeatureCoverage of the cluster. The threshold is the
// loosest bound that every carrying episode satisfies.
func (p *HeuristicProposer) sharedCondition(cluster []cortex.Episode) cortex.Condition {
	type span struct {
		min, max float64
		count    int
	}
	spans := make(map[string]*span)
	for _, ep := range cluster {
		for key, val := range ep.Features {
			s, ok := spans[key]
			if !ok {
				spans[key] = &span{min: val, max: val, count: 1}
				continue
			}
			if val < s.min {
				s.min = val
			}
			if val > s.max {
				s.max = val
			}
			s.count++
		}
	}

	need := int(p.MinFeatureCoverage * float64(len(cluster)))
	if need < 1 {
		need = 1
	}
	condition := make(cortex.Condition)
	for key, s := range spans {
		if s.count < need {
			continue
		}
		// High-valued features become floors, low-valued ones ceilings.
		if s.min >= 0.5 {
			condition[key] = cortex.Predicate{Op: cortex.OpGE, Threshold: s.min}
		} else if s.max <= 0.5 {
			condition[key] = cortex.Predicate{Op: cortex.OpLE, Threshold: s.max}
		}
	}
	return condition
}

// #endregion proposer
