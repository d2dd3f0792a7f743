package memory

// #region imports
import (
	"log"
	"math"
	"sort"
	"time"
)

// #endregion imports

// #region consolidate

// Consolidate decays every episode's dopamine tag by the fixed step, floored
// at zero. Reliability is untouched: trace strength and trust are separate
// signals. Runs off the hot path, periodically or on explicit request.
func (s *Store) Consolidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ep := range s.episodes {
		ep.DopamineTag = math.Max(0, ep.DopamineTag-s.config.DopamineDecayStep)
	}
	log.Printf("[HPC] consolidated %d episodes (tag decay %.2f)", len(s.episodes), s.config.DopamineDecayStep)
}

// #endregion consolidate

// #region transfer

// TransferReady returns copies of all episodes flagged for cortical transfer,
// ordered by index id. The flag is set by the recall path; this accessor is
// for the rule-extraction collaborator only.
func (s *Store) TransferReady() []EpisodicMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []EpisodicMemory
	for _, ep := range s.episodes {
		if ep.ReadyForTransfer {
			out = append(out, *ep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexID < out[j].IndexID })
	return out
}

// #endregion transfer

// #region clusters

// Clusters groups episodes by greedy fine-embedding similarity for rule
// mining. Only groups of at least ClusterMinSize are returned.
func (s *Store) Clusters() [][]EpisodicMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*EpisodicMemory, 0, len(s.episodes))
	for _, ep := range s.episodes {
		all = append(all, ep)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IndexID < all[j].IndexID })

	visited := make(map[int64]bool, len(all))
	var clusters [][]EpisodicMemory

	for i, ep := range all {
		if visited[ep.IndexID] {
			continue
		}
		cluster := []EpisodicMemory{*ep}
		visited[ep.IndexID] = true

		for _, other := range all[i+1:] {
			if visited[other.IndexID] {
				continue
			}
			if float64(dot(ep.Fine, other.Fine)) > s.config.ClusterSim {
				cluster = append(cluster, *other)
				visited[other.IndexID] = true
			}
		}

		if len(cluster) >= s.config.ClusterMinSize {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// #endregion clusters

// #region eviction

// EvictLowest removes the n lowest-value episodes. Value favors recent,
// reliable, surprising, well-recalled traces. This is an explicit external
// operation, never part of the per-tick hot path.
func (s *Store) EvictLowest(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.episodes) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	type scored struct {
		id    int64
		value float64
	}
	ranked := make([]scored, 0, len(s.episodes))
	for id, ep := range s.episodes {
		ranked = append(ranked, scored{id: id, value: episodeValue(ep, now)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value < ranked[j].value
		}
		return ranked[i].id < ranked[j].id
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	for _, r := range ranked[:n] {
		if err := s.deleteLocked(r.id); err != nil {
			return 0, err
		}
	}
	log.Printf("[HPC] evicted %d low-value episodes", n)
	return n, nil
}

func episodeValue(ep *EpisodicMemory, now time.Time) float64 {
	ageHours := now.Sub(ep.CreatedAt).Hours()
	recency := math.Exp(-0.01 * ageHours)
	importance := math.Min(1.0, math.Abs(ep.RPE)*2)
	recallBonus := math.Min(0.3, float64(ep.RecallCount)*0.05)
	tagBoost := 1.0 + ep.DopamineTag*0.05
	return recency * (ep.Reliability + recallBonus) * (0.5 + 0.5*importance) * tagBoost
}

// #endregion eviction

// #region stats

// Stats summarizes the memory system for inspection tooling.
type Stats struct {
	Episodes       int
	AvgReliability float64
	AvgRPE         float64
	AvgDopamineTag float64
	AvgRecallCount float64
	SuccessRate    float64
	CoarseSize     int
	FineSize       int
	ActionSize     int
	TransferReady  int
	Halted         bool
}

// Statistics computes aggregate stats over all live episodes.
func (s *Store) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Episodes:   len(s.episodes),
		CoarseSize: s.coarse.Size(),
		FineSize:   s.fine.Size(),
		ActionSize: s.action.Size(),
		Halted:     s.halted,
	}
	if len(s.episodes) == 0 {
		return st
	}

	var rel, rpe, tag, rec, succ, ready float64
	for _, ep := range s.episodes {
		rel += ep.Reliability
		rpe += ep.RPE
		tag += ep.DopamineTag
		rec += float64(ep.RecallCount)
		if ep.Valence > 0 {
			succ++
		}
		if ep.ReadyForTransfer {
			ready++
		}
	}
	n := float64(len(s.episodes))
	st.AvgReliability = rel / n
	st.AvgRPE = rpe / n
	st.AvgDopamineTag = tag / n
	st.AvgRecallCount = rec / n
	st.SuccessRate = succ / n
	st.TransferReady = int(ready)
	return st
}

// #endregion stats
