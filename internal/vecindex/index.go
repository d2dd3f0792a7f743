// Package vecindex provides a flat inner-product similarity index over
// fixed-dimension vectors keyed by stable integer ids. Three instances of it
// (coarse/fine/action) back the episodic memory recall stages.
package vecindex

// #region imports
import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// #endregion imports

// #region errors

// ErrDuplicateID is returned when adding a vector under an id that was ever
// seen before. Ids are never reused, even after removal.
var ErrDuplicateID = errors.New("duplicate id")

// ErrDimension is returned when a vector's length does not match the index.
var ErrDimension = errors.New("dimension mismatch")

// #endregion errors

// #region types

// Hit is a single search result: an id and its inner-product score.
type Hit struct {
	ID    int64
	Score float32
}

// Row pairs an id with its stored vector, for persistence export/import.
type Row struct {
	ID  int64
	Vec []float32
}

// Index is an append-only inner-product index. Vectors are assumed to be
// pre-normalized, so inner product equals cosine similarity. Removal is
// logical: removed ids never reappear in search results and can never be
// re-added.
type Index struct {
	mu   sync.RWMutex
	dim  int
	vecs map[int64][]float32 // live vectors
	seen map[int64]struct{}  // every id ever added, including removed
}

// #endregion types

// #region constructor

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{
		dim:  dim,
		vecs: make(map[int64][]float32),
		seen: make(map[int64]struct{}),
	}
}

// #endregion constructor

// #region add

// Add inserts a vector under id. The vector is copied; callers may reuse the
// slice. Fails with ErrDuplicateID if the id was ever added before.
func (ix *Index) Add(id int64, vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("add id %d: %w: got %d, want %d", id, ErrDimension, len(vec), ix.dim)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.seen[id]; ok {
		return fmt.Errorf("add id %d: %w", id, ErrDuplicateID)
	}

	cp := make([]float32, ix.dim)
	copy(cp, vec)
	ix.vecs[id] = cp
	ix.seen[id] = struct{}{}
	return nil
}

// #endregion add

// #region search

// Search returns up to k hits ordered by decreasing score, ties broken by
// lower id. k larger than the index size returns everything; k <= 0 returns
// nil.
func (ix *Index) Search(query []float32, k int) []Hit {
	if k <= 0 || len(query) != ix.dim {
		return nil
	}

	ix.mu.RLock()
	hits := make([]Hit, 0, len(ix.vecs))
	for id, vec := range ix.vecs {
		hits = append(hits, Hit{ID: id, Score: dot(query, vec)})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// #endregion search

// #region remove

// Remove logically deletes id. Subsequent searches never return it and the id
// stays burned. Reports whether the id was live.
func (ix *Index) Remove(id int64) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.vecs[id]; !ok {
		return false
	}
	delete(ix.vecs, id)
	return true
}

// #endregion remove

// #region size

// Size returns the number of live vectors.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vecs)
}

// Dim returns the vector dimension the index was created with.
func (ix *Index) Dim() int {
	return ix.dim
}

// Has reports whether id is live in the index.
func (ix *Index) Has(id int64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vecs[id]
	return ok
}

// #endregion size

// #region persistence

// Rows exports all live vectors ordered by id, for serialization.
func (ix *Index) Rows() []Row {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rows := make([]Row, 0, len(ix.vecs))
	for id, vec := range ix.vecs {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		rows = append(rows, Row{ID: id, Vec: cp})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// LiveIDs returns the set of live ids, for invariant checks.
func (ix *Index) LiveIDs() map[int64]struct{} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make(map[int64]struct{}, len(ix.vecs))
	for id := range ix.vecs {
		ids[id] = struct{}{}
	}
	return ids
}

// #endregion persistence

// #region helpers

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// #endregion helpers
