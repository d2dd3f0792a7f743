package logging

import "time"

// #region tick-entry
// TickEntry is a single row in the tick_log table.
type TickEntry struct {
	TickID           string
	Path             string // "reflex" | "deliberate"
	Action           string
	ThreatLabel      string
	ThreatLevel      float64
	PredictedUtility float64
	ActualUtility    float64
	RPE              float64
	Stored           bool
	DetailJSON       string
	CreatedAt        time.Time
}

// #endregion tick-entry

// #region tick-record
// TickRecord captures the complete tick evaluation inputs and outputs.
// Serialized as JSON into tick_log.detail_json for deterministic replay.
type TickRecord struct {
	Content  string             `json:"content"`
	Features map[string]float64 `json:"features"`

	// Recall bias as observed during PHASE1
	Familiarity     float64 `json:"familiarity"`
	ExpectedOutcome float64 `json:"expected_outcome"`
	RiskBias        float64 `json:"risk_bias"`
	NEpisodes       int     `json:"n_episodes"`

	// Rule retrieval
	RuleCount      int     `json:"rule_count"`
	ReflexRuleKey  string  `json:"reflex_rule_key,omitempty"`
	ReflexRuleConf float64 `json:"reflex_rule_conf,omitempty"`

	// Chemical state after outcome feedback
	Dopamine       float64 `json:"dopamine"`
	Serotonin      float64 `json:"serotonin"`
	Norepinephrine float64 `json:"norepinephrine"`
	Mode           string  `json:"mode"`
}

// #endregion tick-record
