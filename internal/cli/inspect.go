package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/logging"
)

var inspectTicks int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show memory statistics and recent ticks",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectTicks, "ticks", 10, "number of recent ticks to show")
}

func runInspect(cmd *cobra.Command, args []string) error {
	db, ms, cs, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	stats := ms.Statistics()
	fmt.Printf("episodes:        %d (coarse=%d fine=%d action=%d)\n",
		stats.Episodes, stats.CoarseSize, stats.FineSize, stats.ActionSize)
	fmt.Printf("avg reliability: %.3f\n", stats.AvgReliability)
	fmt.Printf("avg recalls:     %.1f\n", stats.AvgRecallCount)
	fmt.Printf("success rate:    %.2f\n", stats.SuccessRate)
	fmt.Printf("transfer ready:  %d\n", stats.TransferReady)
	fmt.Printf("rules:           %d\n", cs.Len())
	if stats.Halted {
		fmt.Println("WARNING: write path halted on an index parity violation")
	}

	if err := logging.Migrate(db); err != nil {
		return err
	}
	entries, err := logging.LoadTicks(db, inspectTicks)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	fmt.Println("\nrecent ticks:")
	for _, e := range entries {
		fmt.Printf("  %s  %-10s %-20s threat=%.2f rpe=%+.3f stored=%v\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Path, e.Action,
			e.ThreatLevel, e.RPE, e.Stored)
	}
	return nil
}
