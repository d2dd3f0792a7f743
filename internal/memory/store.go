// Package memory implements the hippocampal subsystem: the authoritative
// episode store, the three similarity indices that reference it by id, the
// two-tier recall engine, and the surprise-gated write path.
package memory

// #region imports
import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/vecindex"
)

// #endregion imports

// #region store

// Store owns the episodic memories and keeps the three vector indices in
// lock-step with them. A single mutex serializes all mutation, so readers in
// other ticks never observe a half-written episode. Recall takes the same
// lock because recall is not read-only: it reinforces the episodes it
// touches.
type Store struct {
	mu     sync.Mutex
	config Config

	episodes  map[int64]*EpisodicMemory
	byEpisode map[string]int64 // episode_id → index_id

	coarse Index
	fine   Index
	action Index

	nextIndexID int64
	halted      bool

	db *sql.DB // nil disables persistence
}

// NewStore creates a memory store with fresh flat indices. If db is non-nil,
// a previously checkpointed state is loaded from it and the id-parity
// invariant is revalidated.
func NewStore(db *sql.DB, config Config) (*Store, error) {
	s := &Store{
		config:      config,
		episodes:    make(map[int64]*EpisodicMemory),
		byEpisode:   make(map[string]int64),
		coarse:      vecindex.New(config.CoarseDim),
		fine:        vecindex.New(config.FineDim),
		action:      vecindex.New(config.ActionDim),
		nextIndexID: 1,
		db:          db,
	}
	if db != nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewStoreWithIndices creates a store over caller-supplied indices. Used by
// tests to observe search traffic per stage.
func NewStoreWithIndices(config Config, coarse, fine, action Index) *Store {
	return &Store{
		config:      config,
		episodes:    make(map[int64]*EpisodicMemory),
		byEpisode:   make(map[string]int64),
		coarse:      coarse,
		fine:        fine,
		action:      action,
		nextIndexID: 1,
	}
}

// #endregion store

// #region get

// Get returns the episode stored under indexID, or ErrNotFound.
func (s *Store) Get(indexID int64) (*EpisodicMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.episodes[indexID]
	if !ok {
		return nil, fmt.Errorf("index id %d: %w", indexID, ErrNotFound)
	}
	cp := *ep
	return &cp, nil
}

// GetByEpisodeID returns the episode with the given opaque id, or ErrNotFound.
func (s *Store) GetByEpisodeID(episodeID string) (*EpisodicMemory, error) {
	s.mu.Lock()
	indexID, ok := s.byEpisode[episodeID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("episode %s: %w", episodeID, ErrNotFound)
	}
	return s.Get(indexID)
}

// Len returns the number of live episodes.
// Config returns the store's tuning configuration.
func (s *Store) Config() Config {
	return s.config
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.episodes)
}

// #endregion get

// #region put

// Put stores an episode and inserts its three embeddings into the indices as
// one atomic unit. The episode's IndexID and EpisodeID must be set and fresh.
func (s *Store) Put(ep *EpisodicMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(ep)
}

func (s *Store) putLocked(ep *EpisodicMemory) error {
	if s.halted {
		return ErrStoreHalted
	}
	if _, exists := s.episodes[ep.IndexID]; exists {
		return fmt.Errorf("put index id %d: %w", ep.IndexID, vecindex.ErrDuplicateID)
	}
	if _, exists := s.byEpisode[ep.EpisodeID]; exists {
		return fmt.Errorf("put episode %s: %w", ep.EpisodeID, vecindex.ErrDuplicateID)
	}

	if err := s.coarse.Add(ep.IndexID, ep.Coarse); err != nil {
		s.haltLocked("coarse insert", err)
		return err
	}
	if err := s.fine.Add(ep.IndexID, ep.Fine); err != nil {
		s.coarse.Remove(ep.IndexID)
		s.haltLocked("fine insert", err)
		return err
	}
	if err := s.action.Add(ep.IndexID, ep.Action); err != nil {
		s.coarse.Remove(ep.IndexID)
		s.fine.Remove(ep.IndexID)
		s.haltLocked("action insert", err)
		return err
	}

	s.episodes[ep.IndexID] = ep
	s.byEpisode[ep.EpisodeID] = ep.IndexID
	if ep.IndexID >= s.nextIndexID {
		s.nextIndexID = ep.IndexID + 1
	}
	return nil
}

// #endregion put

// #region delete

// Delete removes the episode and its entries in all three indices as one
// atomic unit from the caller's perspective. A partial removal would mean the
// indices and store have diverged, which is treated as fatal: the store
// halts further writes.
func (s *Store) Delete(indexID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(indexID)
}

func (s *Store) deleteLocked(indexID int64) error {
	if s.halted {
		return ErrStoreHalted
	}
	ep, ok := s.episodes[indexID]
	if !ok {
		return fmt.Errorf("delete index id %d: %w", indexID, ErrNotFound)
	}

	c := s.coarse.Remove(indexID)
	f := s.fine.Remove(indexID)
	a := s.action.Remove(indexID)
	if !c || !f || !a {
		s.haltLocked("delete", fmt.Errorf("index id %d live in store but missing from index (coarse=%v fine=%v action=%v)", indexID, c, f, a))
		return ErrStoreHalted
	}

	delete(s.episodes, indexID)
	delete(s.byEpisode, ep.EpisodeID)
	return nil
}

// #endregion delete

// #region parity

// CheckParity verifies that the store and all three indices agree on the set
// of live ids.
func (s *Store) CheckParity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkParityLocked()
}

func (s *Store) checkParityLocked() error {
	for name, ix := range map[string]Index{"coarse": s.coarse, "fine": s.fine, "action": s.action} {
		live := ix.LiveIDs()
		if len(live) != len(s.episodes) {
			return fmt.Errorf("%s index has %d ids, store has %d episodes", name, len(live), len(s.episodes))
		}
		for id := range live {
			if _, ok := s.episodes[id]; !ok {
				return fmt.Errorf("%s index id %d has no episode", name, id)
			}
		}
	}
	return nil
}

// Halted reports whether a parity violation has latched the store closed.
func (s *Store) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

func (s *Store) haltLocked(op string, err error) {
	s.halted = true
	log.Printf("[HPC] FATAL: %s violated id parity, halting writes: %v", op, err)
}

// #endregion parity
