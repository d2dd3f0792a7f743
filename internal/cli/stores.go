package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
)

// openStores resolves the data directory and opens the shared sqlite
// database holding episodes, vectors, rules, and the tick log.
func openStores() (*sql.DB, *memory.Store, *cortex.Store, error) {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv("BRAINMIMIC_DATA_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("resolve home: %w", err)
		}
		dir = filepath.Join(home, ".brainmimic")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := memory.OpenDB(filepath.Join(dir, "brain.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	ms, err := memory.NewStore(db, memory.DefaultConfig())
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("load episodic memory: %w", err)
	}
	cs, err := cortex.NewStore(db, cortex.DefaultConfig())
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("load cortical rules: %w", err)
	}
	return db, ms, cs, nil
}

// parseFeatures turns repeated key=value flags into a feature map.
func parseFeatures(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	features := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("feature %q: want key=value", pair)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", pair, err)
		}
		features[key] = f
	}
	return features, nil
}
