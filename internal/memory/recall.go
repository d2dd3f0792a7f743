package memory

// #region imports
import (
	"math"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/vecindex"
)

// #endregion imports

// #region candidate-set

// candidate tracks the best evidence gathered for one episode across the
// recall stages.
type candidate struct {
	weightedSim float64 // best stage-weighted similarity
	rawSim      float64 // best unweighted similarity
}

type candidateSet map[int64]*candidate

func (cs candidateSet) absorb(hits []vecindex.Hit, stageWeight float64) float64 {
	maxRaw := 0.0
	for _, h := range hits {
		raw := float64(h.Score)
		if raw > maxRaw {
			maxRaw = raw
		}
		weighted := raw * stageWeight
		c, ok := cs[h.ID]
		if !ok {
			cs[h.ID] = &candidate{weightedSim: weighted, rawSim: raw}
			continue
		}
		if weighted > c.weightedSim {
			c.weightedSim = weighted
		}
		if raw > c.rawSim {
			c.rawSim = raw
		}
	}
	return maxRaw
}

// #endregion candidate-set

// #region recall

// Recall runs the staged search: coarse always, then fine, then action when
// an action embedding is supplied. Candidates from every executed stage are
// unioned, with fine-stage matches weighted more heavily. Each contributing
// episode is reinforced: recall count incremented, reliability nudged toward
// 1.0 with a diminishing step.
//
// Habituation: when the coarse stage already shows near-perfect familiarity
// and the current threat is low, the fine and action stages are skipped and a
// cheap stage-1-only bias is returned.
func (s *Store) Recall(state []float32, currentThreat float64, action []float32) AggregatedBias {
	s.mu.Lock()
	defer s.mu.Unlock()

	coarseQuery := DownProject(state, s.config.CoarseDim)

	cands := make(candidateSet)
	familiarity := cands.absorb(s.coarse.Search(coarseQuery, s.config.CoarseK), s.config.CoarseWeight)

	habituated := familiarity > s.config.HabituationSim && currentThreat < s.config.HabituationThreat
	if !habituated {
		if raw := cands.absorb(s.fine.Search(state, s.config.FineK), s.config.FineWeight); raw > familiarity {
			familiarity = raw
		}
		if action != nil {
			if raw := cands.absorb(s.action.Search(action, s.config.ActionK), s.config.ActionWeight); raw > familiarity {
				familiarity = raw
			}
		}
	}

	return s.aggregateLocked(cands, familiarity)
}

// #endregion recall

// #region aggregate

// aggregateLocked folds the candidate set into one bias estimate and applies
// the reinforcement-by-repetition rule to every contributor.
func (s *Store) aggregateLocked(cands candidateSet, familiarity float64) AggregatedBias {
	var (
		totalWeight    float64
		weightedSum    float64
		weightedRisk   float64
		reliabilitySum float64
		ids            []string
	)

	for id, c := range cands {
		ep, ok := s.episodes[id]
		if !ok {
			continue
		}

		weight := c.weightedSim * ep.Reliability
		if weight <= 0 {
			continue
		}

		outcome := ep.ActualUtility
		if outcome == 0 {
			outcome = ep.Valence
		}

		totalWeight += weight
		weightedSum += outcome * weight
		weightedRisk += riskOf(ep) * weight
		reliabilitySum += ep.Reliability
		ids = append(ids, ep.EpisodeID)

		s.reinforceLocked(ep)
	}

	if len(ids) == 0 || totalWeight == 0 {
		return AggregatedBias{Familiarity: familiarity}
	}

	n := float64(len(ids))
	return AggregatedBias{
		ExpectedOutcome: weightedSum / totalWeight,
		Confidence:      reliabilitySum / n,
		ConfidenceBoost: boostOf(familiarity),
		RiskBias:        clamp(weightedRisk/totalWeight, -1, 1),
		NEpisodes:       len(ids),
		Familiarity:     familiarity,
		EpisodeIDs:      ids,
	}
}

// reinforceLocked applies the repetition rule: the increment shrinks as
// reliability approaches the cap, so reliability grows monotonically toward
// 1.0 and never past it.
func (s *Store) reinforceLocked(ep *EpisodicMemory) {
	ep.RecallCount++
	ep.Reliability += s.config.ReliabilityStep * (1.0 - ep.Reliability)
	if ep.Reliability > 1.0 {
		ep.Reliability = 1.0
	}
	if ep.RecallCount > s.config.TransferRecalls && ep.Reliability > s.config.TransferReliability {
		ep.ReadyForTransfer = true
	}
}

// riskOf derives a bounded per-episode risk signal: high threat with negative
// valence saturates toward -1.
func riskOf(ep *EpisodicMemory) float64 {
	return math.Tanh(-ep.ThreatLevel * (1.0 - ep.Valence) / 2.0)
}

// boostOf maps familiarity to a saturating confidence boost.
func boostOf(familiarity float64) float64 {
	return math.Tanh(2.0 * familiarity)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion aggregate

// #region projection

// DownProject reduces a fine vector to dim dimensions by mean-pooling
// contiguous bands, then renormalizes. Vectors already at or below dim are
// zero-padded.
func DownProject(vec []float32, dim int) []float32 {
	out := make([]float32, dim)
	if len(vec) <= dim {
		copy(out, vec)
		return Normalize(out)
	}

	ratio := float64(len(vec)) / float64(dim)
	for i := 0; i < dim; i++ {
		lo := int(float64(i) * ratio)
		hi := int(float64(i+1) * ratio)
		if hi > len(vec) {
			hi = len(vec)
		}
		var sum float32
		for _, v := range vec[lo:hi] {
			sum += v
		}
		out[i] = sum / float32(hi-lo)
	}
	return Normalize(out)
}

// Normalize scales a vector to unit length in place and returns it. Zero
// vectors pass through unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// #endregion projection
