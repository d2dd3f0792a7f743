package replay

import (
	"context"
	"fmt"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/cortex"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/memory"
	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/pipeline"
)

// #region types

// Result captures the route one replayed tick took.
type Result struct {
	Path     string
	Action   string
	RPE      float64
	Stored   bool
	Dopamine float64 // after outcome feedback
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalTicks    int
	ReflexTicks   int
	StoredTicks   int
	FinalDopamine float64
	Episodes      int
	Rules         int
}

// #endregion types

// #region replay

// Replay runs the fixture's ticks through a fresh in-memory pipeline
// wired with the local collaborators. The local collaborators are
// deterministic, so equal fixtures always produce equal results; this
// is the regression baseline that catches tuning drift.
func Replay(ctx context.Context, f *Fixture) ([]Result, Summary, error) {
	store, err := memory.NewStore(nil, memory.DefaultConfig())
	if err != nil {
		return nil, Summary{}, fmt.Errorf("memory store: %w", err)
	}
	rules, err := cortex.NewStore(nil, cortex.DefaultConfig())
	if err != nil {
		return nil, Summary{}, fmt.Errorf("cortex store: %w", err)
	}
	for _, r := range f.Rules {
		if err := rules.AddRule(r.ToRule()); err != nil {
			return nil, Summary{}, fmt.Errorf("seed rule: %w", err)
		}
	}

	orch := pipeline.New(store, rules, pipeline.LocalCollaborators(), pipeline.DefaultConfig())
	defer orch.Close()

	results := make([]Result, 0, len(f.Ticks))
	summary := Summary{TotalTicks: len(f.Ticks)}
	for i, tick := range f.Ticks {
		res, err := orch.Tick(ctx, tick.ToStimulus())
		if err != nil {
			return results, summary, fmt.Errorf("tick %d: %w", i, err)
		}
		results = append(results, Result{
			Path:     string(res.Path),
			Action:   res.Action,
			RPE:      res.RPE,
			Stored:   res.Stored,
			Dopamine: res.Chem.Dopamine,
		})
		if res.Path == pipeline.PathReflex {
			summary.ReflexTicks++
		}
		if res.Stored {
			summary.StoredTicks++
		}
		summary.FinalDopamine = res.Chem.Dopamine
	}
	summary.Episodes = store.Len()
	summary.Rules = rules.Len()
	return results, summary, nil
}

// #endregion replay

// #region verify

// Verify compares results against the fixture's expectations and
// returns one message per mismatch.
func Verify(f *Fixture, results []Result) []string {
	var mismatches []string
	if len(results) != len(f.Expected) {
		return []string{fmt.Sprintf("expected %d results, got %d", len(f.Expected), len(results))}
	}
	for i, want := range f.Expected {
		got := results[i]
		if got.Path != want.Path {
			mismatches = append(mismatches, fmt.Sprintf("tick %d: path %s, want %s", i, got.Path, want.Path))
		}
		if want.Action != "" && got.Action != want.Action {
			mismatches = append(mismatches, fmt.Sprintf("tick %d: action %s, want %s", i, got.Action, want.Action))
		}
		if got.Stored != want.Stored {
			mismatches = append(mismatches, fmt.Sprintf("tick %d: stored %v, want %v", i, got.Stored, want.Stored))
		}
	}
	return mismatches
}

// #endregion verify
