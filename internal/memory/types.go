package memory

// #region imports
import (
	"errors"
	"time"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/vecindex"
)

// #endregion imports

// #region errors

// ErrNotFound is returned for lookups of ids not present in the store.
// Callers treat it as an empty result.
var ErrNotFound = errors.New("episode not found")

// ErrStoreHalted is returned for writes after an id-parity violation was
// detected. Silent divergence between the indices and the store is worse than
// stopping, so the store latches closed until rebuilt.
var ErrStoreHalted = errors.New("memory store halted: id-parity violation")

// #endregion errors

// #region episode

// EpisodicMemory is one completed state→action→outcome experience.
type EpisodicMemory struct {
	EpisodeID string // opaque, globally unique
	IndexID   int64  // stable key into every vector index, never reused
	CreatedAt time.Time

	// Fixed-length normalized embeddings, immutable after creation.
	Coarse []float32 // 32-dim
	Fine   []float32 // 64-dim
	Action []float32 // 16-dim

	// Salience and outcome.
	ThreatLevel      float64 // [0, 1]
	Valence          float64 // [-1, 1]
	PredictedUtility float64
	ActualUtility    float64
	RPE              float64 // actual - predicted

	// Memory trace.
	DopamineTag        float64 // encoding strength, decays on consolidation
	InitialDopamineTag float64
	Reliability        float64 // starts 0.3, grows with validated recalls, cap 1.0
	RecallCount        int

	// Cortical transfer.
	ReadyForTransfer bool

	ActionSignature string
	Features        map[string]float64 // raw features for downstream rule mining
}

// #endregion episode

// #region candidate

// Candidate is an episode assembled by the orchestrator at the end of a tick,
// before write admission.
type Candidate struct {
	Coarse []float32
	Fine   []float32
	Action []float32

	ThreatLevel      float64
	Success          bool
	PredictedUtility float64
	ActualUtility    float64
	RPE              float64

	ActionSignature string
	Features        map[string]float64
}

// #endregion candidate

// #region bias

// AggregatedBias is the ephemeral product of one recall call. It is never
// persisted.
type AggregatedBias struct {
	ExpectedOutcome float64
	Confidence      float64
	ConfidenceBoost float64
	RiskBias        float64 // [-1, 1]
	NEpisodes       int
	Familiarity     float64 // [0, 1]
	EpisodeIDs      []string
}

// #endregion bias

// #region index-contract

// Index is the similarity-index contract the store drives. Satisfied by
// *vecindex.Index; tests substitute counting wrappers.
type Index interface {
	Add(id int64, vec []float32) error
	Search(query []float32, k int) []vecindex.Hit
	Remove(id int64) bool
	Size() int
	Dim() int
	Rows() []vecindex.Row
	LiveIDs() map[int64]struct{}
}

// #endregion index-contract

// #region config

// Config tunes recall, admission, and consolidation.
type Config struct {
	CoarseDim int
	FineDim   int
	ActionDim int

	CoarseK int // stage 1 fan-out
	FineK   int // stage 2 fan-out
	ActionK int // stage 3 fan-out

	// Stage weights: fine-stage matches count more than coarse, since they
	// are computed on higher-resolution vectors.
	CoarseWeight float64
	FineWeight   float64
	ActionWeight float64

	SurpriseThreshold float64 // |rpe| must exceed this to store at all
	DuplicateSim      float64 // nearest-neighbor similarity that marks a near-duplicate
	DuplicateSurprise float64 // |rpe| bar for near-duplicate situations
	HabituationSim    float64 // familiarity above this may short-circuit recall
	HabituationThreat float64 // only when current threat is below this

	InitialReliability  float64
	ReliabilityStep     float64 // growth factor per validated recall, diminishing
	DopamineDecayStep   float64 // per consolidation pass
	TransferReliability float64 // promotion thresholds for ready_for_transfer
	TransferRecalls     int

	InterferenceSim       float64 // state similarity for conflict detection
	InterferenceActionSim float64 // action similarity for conflict detection
	InterferencePenalty   float64 // reliability multiplier on conflict

	ClusterSim     float64 // similarity bound for episode clustering
	ClusterMinSize int
}

// DefaultConfig returns the standard memory tuning.
func DefaultConfig() Config {
	return Config{
		CoarseDim: 32,
		FineDim:   64,
		ActionDim: 16,

		CoarseK: 20,
		FineK:   10,
		ActionK: 5,

		CoarseWeight: 0.6,
		FineWeight:   1.0,
		ActionWeight: 0.8,

		SurpriseThreshold: 0.1,
		DuplicateSim:      0.95,
		DuplicateSurprise: 0.3,
		HabituationSim:    0.92,
		HabituationThreat: 0.3,

		InitialReliability:  0.3,
		ReliabilityStep:     0.1,
		DopamineDecayStep:   0.1,
		TransferReliability: 0.8,
		TransferRecalls:     5,

		InterferenceSim:       0.85,
		InterferenceActionSim: 0.9,
		InterferencePenalty:   0.4,

		ClusterSim:     0.85,
		ClusterMinSize: 3,
	}
}

// #endregion config
