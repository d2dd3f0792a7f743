package memory

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func tempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCheckpointRoundTrip(t *testing.T) {
	db := tempDB(t)

	s, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 4; i++ {
		mustStore(t, s, testCandidate(i, 0.5, true))
	}
	// touch one episode so trace fields are non-trivial
	s.Recall(unit(64, 1), 0.9, nil)
	if err := s.Delete(3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	orig, err := s.Get(2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	reloaded, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 3 {
		t.Fatalf("expected 3 episodes after reload, got %d", reloaded.Len())
	}
	if err := reloaded.CheckParity(); err != nil {
		t.Fatalf("parity after reload: %v", err)
	}

	got, err := reloaded.Get(2)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.EpisodeID != orig.EpisodeID {
		t.Fatalf("episode id changed: %s vs %s", got.EpisodeID, orig.EpisodeID)
	}
	if math.Abs(got.Reliability-orig.Reliability) > 1e-6 {
		t.Fatalf("reliability changed: %f vs %f", got.Reliability, orig.Reliability)
	}
	if got.RecallCount != orig.RecallCount {
		t.Fatalf("recall count changed: %d vs %d", got.RecallCount, orig.RecallCount)
	}
	if len(got.Fine) != 64 || len(got.Coarse) != 32 || len(got.Action) != 16 {
		t.Fatal("embeddings lost dimensions on reload")
	}

	// recall still works against the rebuilt indices
	bias := reloaded.Recall(unit(64, 1), 0.9, nil)
	if bias.NEpisodes == 0 {
		t.Fatal("reloaded indices returned nothing")
	}
}

func TestIndexIDsNeverReusedAcrossReload(t *testing.T) {
	db := tempDB(t)

	s, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 3; i++ {
		mustStore(t, s, testCandidate(i, 0.5, true))
	}
	if err := s.Delete(3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustStore(t, reloaded, testCandidate(9, 0.5, true))

	if _, err := reloaded.Get(4); err != nil {
		t.Fatalf("expected fresh id 4 (id 3 stays burned), got: %v", err)
	}
}

func TestOrphanIndexRowsDroppedOnLoad(t *testing.T) {
	db := tempDB(t)

	s, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	mustStore(t, s, testCandidate(0, 0.5, true))
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// inject an orphan: a fine-index row with no episode
	if _, err := db.Exec(`INSERT INTO fine_vectors (index_id, vec) VALUES (999, ?)`, encodeVector(unit(64, 5))); err != nil {
		t.Fatalf("inject orphan: %v", err)
	}

	reloaded, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("load with orphan should degrade, not fail: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 episode, got %d", reloaded.Len())
	}
	if err := reloaded.CheckParity(); err != nil {
		t.Fatalf("parity after dropping orphan: %v", err)
	}
}

func TestEpisodeMissingVectorsDroppedOnLoad(t *testing.T) {
	db := tempDB(t)

	s, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	mustStore(t, s, testCandidate(0, 0.5, true))
	mustStore(t, s, testCandidate(1, 0.5, true))
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// corrupt episode 2: remove its action vector
	if _, err := db.Exec(`DELETE FROM action_vectors WHERE index_id = 2`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	reloaded, err := NewStore(db, DefaultConfig())
	if err != nil {
		t.Fatalf("load should degrade: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected corrupt episode dropped, got %d live", reloaded.Len())
	}
	if err := reloaded.CheckParity(); err != nil {
		t.Fatalf("parity: %v", err)
	}
}
