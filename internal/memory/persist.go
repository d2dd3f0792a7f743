package memory

// #region imports
import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// #endregion imports

// #region schema

const memorySchema = `
CREATE TABLE IF NOT EXISTS episodes (
    index_id       INTEGER PRIMARY KEY,
    episode_id     TEXT NOT NULL UNIQUE,
    created_at     TEXT NOT NULL,
    threat_level   REAL NOT NULL,
    valence        REAL NOT NULL,
    predicted      REAL NOT NULL,
    actual         REAL NOT NULL,
    rpe            REAL NOT NULL,
    dopamine_tag   REAL NOT NULL,
    initial_tag    REAL NOT NULL,
    reliability    REAL NOT NULL,
    recall_count   INTEGER NOT NULL,
    ready          INTEGER NOT NULL DEFAULT 0,
    action_sig     TEXT NOT NULL DEFAULT '',
    features_json  TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS coarse_vectors (
    index_id INTEGER PRIMARY KEY,
    vec      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS fine_vectors (
    index_id INTEGER PRIMARY KEY,
    vec      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS action_vectors (
    index_id INTEGER PRIMARY KEY,
    vec      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS memory_meta (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    next_index_id INTEGER NOT NULL
);
`

// #endregion schema

// #region open

// OpenDB opens (and migrates) the memory database at path.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(memorySchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// #endregion open

// #region save

// Save checkpoints the episode store and all three vector tables as one
// transaction: a reader of the database never sees a torn snapshot.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin checkpoint: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"episodes", "coarse_vectors", "fine_vectors", "action_vectors"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, ep := range s.episodes {
		features, err := json.Marshal(ep.Features)
		if err != nil {
			return fmt.Errorf("marshal features for %s: %w", ep.EpisodeID, err)
		}
		ready := 0
		if ep.ReadyForTransfer {
			ready = 1
		}
		_, err = tx.Exec(`
			INSERT INTO episodes
			(index_id, episode_id, created_at, threat_level, valence, predicted, actual, rpe,
			 dopamine_tag, initial_tag, reliability, recall_count, ready, action_sig, features_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ep.IndexID, ep.EpisodeID, ep.CreatedAt.Format(time.RFC3339Nano),
			ep.ThreatLevel, ep.Valence, ep.PredictedUtility, ep.ActualUtility, ep.RPE,
			ep.DopamineTag, ep.InitialDopamineTag, ep.Reliability, ep.RecallCount,
			ready, ep.ActionSignature, string(features),
		)
		if err != nil {
			return fmt.Errorf("insert episode %s: %w", ep.EpisodeID, err)
		}
	}

	for table, ix := range map[string]Index{
		"coarse_vectors": s.coarse,
		"fine_vectors":   s.fine,
		"action_vectors": s.action,
	} {
		for _, row := range ix.Rows() {
			if _, err := tx.Exec("INSERT INTO "+table+" (index_id, vec) VALUES (?, ?)", row.ID, encodeVector(row.Vec)); err != nil {
				return fmt.Errorf("insert %s row %d: %w", table, row.ID, err)
			}
		}
	}

	_, err = tx.Exec(`INSERT INTO memory_meta (id, next_index_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET next_index_id = excluded.next_index_id`, s.nextIndexID)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// #endregion save

// #region load

// load restores the checkpointed state. The id-parity invariant is
// revalidated: an index row referencing a missing episode, or an episode
// missing any of its three vectors, is corrupt and is dropped with a
// warning, never a startup failure.
func (s *Store) load() error {
	episodes, err := s.loadEpisodes()
	if err != nil {
		return err
	}

	vectors := map[string]map[int64][]float32{}
	for table, dim := range map[string]int{
		"coarse_vectors": s.config.CoarseDim,
		"fine_vectors":   s.config.FineDim,
		"action_vectors": s.config.ActionDim,
	} {
		vecs, err := s.loadVectors(table, dim, episodes)
		if err != nil {
			return err
		}
		vectors[table] = vecs
	}

	restored := 0
	for id, ep := range episodes {
		coarse, cok := vectors["coarse_vectors"][id]
		fine, fok := vectors["fine_vectors"][id]
		action, aok := vectors["action_vectors"][id]
		if !cok || !fok || !aok {
			log.Printf("[HPC] dropping episode %s: missing index vectors (coarse=%v fine=%v action=%v)",
				ep.EpisodeID, cok, fok, aok)
			continue
		}
		ep.Coarse, ep.Fine, ep.Action = coarse, fine, action
		if err := s.putLocked(ep); err != nil {
			return fmt.Errorf("restore episode %s: %w", ep.EpisodeID, err)
		}
		restored++
	}

	var next sql.NullInt64
	if err := s.db.QueryRow(`SELECT next_index_id FROM memory_meta WHERE id = 1`).Scan(&next); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("load meta: %w", err)
	}
	if next.Valid && next.Int64 > s.nextIndexID {
		s.nextIndexID = next.Int64
	}

	if err := s.checkParityLocked(); err != nil {
		return fmt.Errorf("parity after load: %w", err)
	}
	if restored > 0 {
		log.Printf("[HPC] loaded %d episodes", restored)
	}
	return nil
}

func (s *Store) loadEpisodes() (map[int64]*EpisodicMemory, error) {
	rows, err := s.db.Query(`
		SELECT index_id, episode_id, created_at, threat_level, valence, predicted, actual, rpe,
		       dopamine_tag, initial_tag, reliability, recall_count, ready, action_sig, features_json
		FROM episodes`)
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	defer rows.Close()

	episodes := make(map[int64]*EpisodicMemory)
	for rows.Next() {
		var ep EpisodicMemory
		var createdStr, featuresJSON string
		var ready int
		err := rows.Scan(&ep.IndexID, &ep.EpisodeID, &createdStr, &ep.ThreatLevel, &ep.Valence,
			&ep.PredictedUtility, &ep.ActualUtility, &ep.RPE, &ep.DopamineTag, &ep.InitialDopamineTag,
			&ep.Reliability, &ep.RecallCount, &ready, &ep.ActionSignature, &featuresJSON)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		ep.ReadyForTransfer = ready != 0
		if err := json.Unmarshal([]byte(featuresJSON), &ep.Features); err != nil {
			log.Printf("[HPC] episode %s: corrupt features, dropping them: %v", ep.EpisodeID, err)
			ep.Features = nil
		}
		episodes[ep.IndexID] = &ep
	}
	return episodes, rows.Err()
}

func (s *Store) loadVectors(table string, dim int, episodes map[int64]*EpisodicMemory) (map[int64][]float32, error) {
	rows, err := s.db.Query("SELECT index_id, vec FROM " + table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	vecs := make(map[int64][]float32)
	dropped := 0
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if _, ok := episodes[id]; !ok {
			dropped++
			continue
		}
		vec := decodeVector(blob, dim)
		if vec == nil {
			log.Printf("[HPC] %s row %d: corrupt vector blob, dropping", table, id)
			continue
		}
		vecs[id] = vec
	}
	if dropped > 0 {
		log.Printf("[HPC] %s: dropped %d rows referencing missing episodes", table, dropped)
	}
	return vecs, rows.Err()
}

// #endregion load

// #region vector-encoding

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte, dim int) []float32 {
	if len(b) != dim*4 {
		return nil
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// #endregion vector-encoding
