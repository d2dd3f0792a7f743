package cortex

// #region imports
import (
	"context"
	"fmt"
	"log"
	"math"
)

// #endregion imports

// #region types

// Episode is the extractor's view of one experience: abstract features, the
// action taken, and the scored outcome. Produced by the memory subsystem from
// transfer-ready episodic memories.
type Episode struct {
	Features map[string]float64
	Action   string
	Outcome  float64
}

// Proposer drafts a candidate rule from a cluster of similar episodes. The
// proposal is untrusted: the extractor replays it against the cluster before
// admitting it.
type Proposer interface {
	ProposeRule(ctx context.Context, cluster []Episode) (CorticalRule, error)
}

// ExtractorConfig tunes cluster stability and validation requirements.
type ExtractorConfig struct {
	MinMeanOutcome   float64 // cluster must be consistently positive
	MaxOutcomeStddev float64 // and consistent
	MinCoverage      float64 // fraction of the cluster the rule must explain
}

// DefaultExtractorConfig returns the standard extraction thresholds.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinMeanOutcome:   0.5,
		MaxOutcomeStddev: 0.2,
		MinCoverage:      0.8,
	}
}

// Extractor distills cortical rules from episode clusters.
type Extractor struct {
	proposer Proposer
	config   ExtractorConfig
}

// NewExtractor creates an extractor using the given proposer.
func NewExtractor(proposer Proposer, config ExtractorConfig) *Extractor {
	return &Extractor{proposer: proposer, config: config}
}

// #endregion types

// #region extract

// Extract drafts and validates a rule from a cluster. Returns (rule, true)
// only when the cluster is stable and the proposed rule replays against at
// least MinCoverage of its episodes.
func (e *Extractor) Extract(ctx context.Context, cluster []Episode, clusterID string) (CorticalRule, bool) {
	if len(cluster) == 0 || !e.stable(cluster) {
		return CorticalRule{}, false
	}

	rule, err := e.proposer.ProposeRule(ctx, cluster)
	if err != nil {
		log.Printf("[CORTEX] rule proposal failed for cluster %s: %v", clusterID, err)
		return CorticalRule{}, false
	}
	if len(rule.Condition) == 0 || rule.Action == "" {
		return CorticalRule{}, false
	}
	rule.SourceClusterID = clusterID

	coverage := e.replay(rule, cluster)
	if coverage < e.config.MinCoverage {
		log.Printf("[CORTEX] rule rejected for cluster %s: coverage %.2f < %.2f",
			clusterID, coverage, e.config.MinCoverage)
		return CorticalRule{}, false
	}

	return rule, true
}

// stable checks that the cluster's outcomes are consistently positive.
func (e *Extractor) stable(cluster []Episode) bool {
	var sum float64
	for _, ep := range cluster {
		sum += ep.Outcome
	}
	mean := sum / float64(len(cluster))
	if mean <= e.config.MinMeanOutcome {
		return false
	}

	var variance float64
	for _, ep := range cluster {
		d := ep.Outcome - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(cluster)))
	return stddev < e.config.MaxOutcomeStddev
}

// replay computes the fraction of cluster episodes whose features satisfy the
// rule's condition and whose action matches the rule's action.
func (e *Extractor) replay(rule CorticalRule, cluster []Episode) float64 {
	matches := 0
	for _, ep := range cluster {
		if ep.Action == rule.Action && rule.Condition.Matches(ep.Features) {
			matches++
		}
	}
	return float64(matches) / float64(len(cluster))
}

// #endregion extract

// #region helpers

// ClusterID formats a stable identifier for a cluster ordinal.
func ClusterID(n int) string {
	return fmt.Sprintf("cluster-%d", n)
}

// #endregion helpers
