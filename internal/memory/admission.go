package memory

// #region imports
import (
	"log"
	"math"
	"time"

	"github.com/google/uuid"
)

// #endregion imports

// #region maybe-store

// MaybeStore applies the write-admission policy to a candidate episode and,
// if admitted, inserts it into the store and all three indices atomically.
// Returns whether the candidate was stored.
//
// Policy: experiences that were not surprising are not worth keeping, and
// near-duplicates of known situations need a stronger surprise signal than
// novel ones to justify a new entry.
func (s *Store) MaybeStore(c Candidate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return false, ErrStoreHalted
	}

	surprise := math.Abs(c.RPE)
	if surprise <= s.config.SurpriseThreshold {
		return false, nil
	}

	if nearest := s.fine.Search(c.Fine, 1); len(nearest) > 0 {
		if float64(nearest[0].Score) > s.config.DuplicateSim && surprise <= s.config.DuplicateSurprise {
			log.Printf("[HPC] rejected near-duplicate (sim %.3f, |rpe| %.3f)", nearest[0].Score, surprise)
			return false, nil
		}
	}

	s.interfereLocked(c)

	valence := -1.0
	if c.Success {
		valence = 1.0
	}

	ep := &EpisodicMemory{
		EpisodeID: uuid.New().String(),
		IndexID:   s.nextIndexID,
		CreatedAt: time.Now().UTC(),

		Coarse: c.Coarse,
		Fine:   c.Fine,
		Action: c.Action,

		ThreatLevel:      c.ThreatLevel,
		Valence:          valence,
		PredictedUtility: c.PredictedUtility,
		ActualUtility:    c.ActualUtility,
		RPE:              c.RPE,

		DopamineTag:        encodingTag(surprise),
		InitialDopamineTag: encodingTag(surprise),
		Reliability:        s.config.InitialReliability,
		RecallCount:        0,
		ReadyForTransfer:   false,

		ActionSignature: c.ActionSignature,
		Features:        c.Features,
	}

	if err := s.putLocked(ep); err != nil {
		return false, err
	}
	log.Printf("[HPC] encoded episode %s (index id %d, |rpe| %.3f)", ep.EpisodeID, ep.IndexID, surprise)
	return true, nil
}

// encodingTag maps surprise magnitude to the initial dopamine tag: stronger
// surprise, stronger trace, saturating at 1.
func encodingTag(surprise float64) float64 {
	return clamp(2.0*surprise, 0, 1)
}

// #endregion maybe-store

// #region interference

// interfereLocked implements retroactive interference: when the incoming
// experience contradicts a highly similar stored one (same situation, same
// action, opposite outcome), the old memory's reliability is slashed. The
// world changed; trusting the stale trace is dangerous.
func (s *Store) interfereLocked(c Candidate) {
	for _, hit := range s.fine.Search(c.Fine, 5) {
		if float64(hit.Score) < s.config.InterferenceSim {
			continue
		}
		ep, ok := s.episodes[hit.ID]
		if !ok {
			continue
		}
		if float64(dot(c.Action, ep.Action)) < s.config.InterferenceActionSim {
			continue
		}
		if (ep.Valence > 0) != c.Success {
			ep.Reliability *= s.config.InterferencePenalty
			log.Printf("[HPC] suppressed episode %s by interference (reliability %.3f)", ep.EpisodeID, ep.Reliability)
		}
	}
}

func dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// #endregion interference
