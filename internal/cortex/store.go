// Package cortex implements the neocortical rule store: condition→action
// mappings distilled from episode clusters, retrieved by linear scan and
// reinforced on duplicate insertion.
package cortex

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// #endregion imports

// #region schema

const rulesSchema = `
CREATE TABLE IF NOT EXISTS cortical_rules (
    seq               INTEGER PRIMARY KEY AUTOINCREMENT,
    condition_key     TEXT NOT NULL UNIQUE,
    condition_json    TEXT NOT NULL,
    action            TEXT NOT NULL,
    confidence        REAL NOT NULL,
    source_cluster_id TEXT NOT NULL DEFAULT '',
    updated_at        TEXT NOT NULL
);
`

// #endregion schema

// #region config

// Config holds rule-store thresholds.
type Config struct {
	ReflexThreshold float64 // min confidence for reflex eligibility
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ReflexThreshold: 0.9,
	}
}

// #endregion config

// #region store

type storedRule struct {
	rule CorticalRule
	seq  int64 // insertion order, preserved across reinforcement
}

// Store holds cortical rules in memory with an optional SQLite mirror.
// Retrieval is a linear scan over all rules: rule sets are small and
// hand-curated, so the scan stays cheap and the code stays simple.
type Store struct {
	mu     sync.Mutex
	config Config
	db     *sql.DB // nil for an ephemeral store
	rules  []storedRule
	byKey  map[string]int // condition key → index into rules
	next   int64
}

// NewStore creates a rule store backed by db. Pass nil for an in-memory
// store with no persistence. Existing rules are loaded in insertion order;
// rows with unparseable conditions are dropped with a warning.
func NewStore(db *sql.DB, config Config) (*Store, error) {
	s := &Store{
		config: config,
		db:     db,
		byKey:  make(map[string]int),
		next:   1,
	}
	if db == nil {
		return s, nil
	}

	if _, err := db.Exec(rulesSchema); err != nil {
		return nil, fmt.Errorf("migrate rules: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT seq, condition_json, action, confidence, source_cluster_id FROM cortical_rules ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	dropped := 0
	for rows.Next() {
		var seq int64
		var condJSON, action, sourceID string
		var confidence float64
		if err := rows.Scan(&seq, &condJSON, &action, &confidence, &sourceID); err != nil {
			return fmt.Errorf("scan rule: %w", err)
		}

		var cond Condition
		if err := json.Unmarshal([]byte(condJSON), &cond); err != nil || len(cond) == 0 {
			dropped++
			continue
		}

		s.byKey[cond.Key()] = len(s.rules)
		s.rules = append(s.rules, storedRule{
			rule: CorticalRule{Condition: cond, Action: action, Confidence: confidence, SourceClusterID: sourceID},
			seq:  seq,
		})
		if seq >= s.next {
			s.next = seq + 1
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rules: %w", err)
	}
	if dropped > 0 {
		log.Printf("[CORTEX] dropped %d corrupt rule rows on load", dropped)
	}
	if len(s.rules) > 0 {
		log.Printf("[CORTEX] loaded %d rules", len(s.rules))
	}
	return nil
}

// #endregion store

// #region add-rule

// AddRule inserts a rule, or reinforces an existing rule with an identical
// condition by averaging the two confidences. At most one rule per distinct
// condition ever exists.
func (s *Store) AddRule(rule CorticalRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rule.Condition.Key()
	if i, ok := s.byKey[key]; ok {
		existing := &s.rules[i].rule
		existing.Confidence = (existing.Confidence + rule.Confidence) / 2
		existing.SourceClusterID = rule.SourceClusterID
		log.Printf("[CORTEX] reinforced rule %q → confidence %.3f", existing.Action, existing.Confidence)
		return s.persist(s.rules[i])
	}

	sr := storedRule{rule: rule, seq: s.next}
	s.next++
	s.byKey[key] = len(s.rules)
	s.rules = append(s.rules, sr)
	log.Printf("[CORTEX] learned rule %s → %q (confidence %.3f)", key, rule.Action, rule.Confidence)
	return s.persist(sr)
}

func (s *Store) persist(sr storedRule) error {
	if s.db == nil {
		return nil
	}
	condJSON, err := json.Marshal(sr.rule.Condition)
	if err != nil {
		return fmt.Errorf("marshal condition: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO cortical_rules (seq, condition_key, condition_json, action, confidence, source_cluster_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(condition_key) DO UPDATE SET
			action = excluded.action,
			confidence = excluded.confidence,
			source_cluster_id = excluded.source_cluster_id,
			updated_at = excluded.updated_at`,
		sr.seq,
		sr.rule.Condition.Key(),
		string(condJSON),
		sr.rule.Action,
		sr.rule.Confidence,
		sr.rule.SourceClusterID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("persist rule: %w", err)
	}
	return nil
}

// #endregion add-rule

// #region retrieve

// Retrieve returns all rules whose condition holds for the given state,
// sorted by descending confidence, ties broken by most-recently-added.
func (s *Store) Retrieve(state map[string]float64) []CorticalRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	type match struct {
		rule CorticalRule
		seq  int64
	}
	var matches []match
	for _, sr := range s.rules {
		if sr.rule.Condition.Matches(state) {
			matches = append(matches, match{rule: sr.rule, seq: sr.seq})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rule.Confidence != matches[j].rule.Confidence {
			return matches[i].rule.Confidence > matches[j].rule.Confidence
		}
		return matches[i].seq > matches[j].seq
	})

	out := make([]CorticalRule, len(matches))
	for i, m := range matches {
		out[i] = m.rule
	}
	return out
}

// #endregion retrieve

// #region reflex

// ReflexEligible reports whether a rule's confidence clears the reflex bar.
// The store only reports eligibility; acting on it is the orchestrator's
// decision.
func (s *Store) ReflexEligible(rule CorticalRule) bool {
	return rule.Confidence > s.config.ReflexThreshold
}

// #endregion reflex

// #region accessors

// Len returns the number of stored rules.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Rules returns a snapshot of all rules in insertion order.
func (s *Store) Rules() []CorticalRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CorticalRule, len(s.rules))
	for i, sr := range s.rules {
		out[i] = sr.rule
	}
	return out
}

// #endregion accessors
