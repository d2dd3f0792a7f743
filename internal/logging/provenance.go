package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const tickSchema = `
CREATE TABLE IF NOT EXISTS tick_log (
	tick_id           TEXT NOT NULL,
	path              TEXT NOT NULL,
	action            TEXT NOT NULL,
	threat_label      TEXT,
	threat_level      REAL NOT NULL,
	predicted_utility REAL NOT NULL,
	actual_utility    REAL NOT NULL,
	rpe               REAL NOT NULL,
	stored            INTEGER NOT NULL,
	detail_json       TEXT,
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tick_log_created ON tick_log(created_at);
`

// Migrate creates the tick_log table if missing.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(tickSchema); err != nil {
		return fmt.Errorf("migrate tick_log: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-tick
// LogTick writes a tick entry to the tick_log table.
func LogTick(db *sql.DB, entry TickEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO tick_log (tick_id, path, action, threat_label, threat_level, predicted_utility, actual_utility, rpe, stored, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TickID,
		entry.Path,
		entry.Action,
		nullIfEmpty(entry.ThreatLabel),
		entry.ThreatLevel,
		entry.PredictedUtility,
		entry.ActualUtility,
		entry.RPE,
		boolToInt(entry.Stored),
		nullIfEmpty(entry.DetailJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log tick: %w", err)
	}
	return nil
}

// #endregion log-tick

// #region load-ticks
// LoadTicks returns the most recent entries, newest first. limit <= 0 means all.
func LoadTicks(db *sql.DB, limit int) ([]TickEntry, error) {
	query := `SELECT tick_id, path, action, COALESCE(threat_label, ''), threat_level,
	predicted_utility, actual_utility, rpe, stored, COALESCE(detail_json, ''), created_at
	FROM tick_log ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}
	defer rows.Close()

	var entries []TickEntry
	for rows.Next() {
		var e TickEntry
		var stored int
		var created string
		if err := rows.Scan(&e.TickID, &e.Path, &e.Action, &e.ThreatLabel, &e.ThreatLevel,
			&e.PredictedUtility, &e.ActualUtility, &e.RPE, &stored, &e.DetailJSON, &created); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		e.Stored = stored != 0
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion load-ticks

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
