package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <fixture.json>",
	Short: "Replay a recorded session fixture and verify expected routes",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	fixture, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}

	results, summary, err := replay.Replay(cmd.Context(), fixture)
	if err != nil {
		return err
	}

	for i, res := range results {
		fmt.Printf("tick %d: path=%-10s action=%-20s rpe=%+.3f stored=%v\n",
			i, res.Path, res.Action, res.RPE, res.Stored)
	}
	fmt.Printf("\n%d ticks, %d reflex, %d stored, final dopamine %.3f\n",
		summary.TotalTicks, summary.ReflexTicks, summary.StoredTicks, summary.FinalDopamine)

	mismatches := replay.Verify(fixture, results)
	for _, msg := range mismatches {
		fmt.Println("MISMATCH:", msg)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d expectation mismatches", len(mismatches))
	}
	return nil
}
