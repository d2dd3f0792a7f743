package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCount int

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Evict the lowest-value episodes",
	Args:  cobra.NoArgs,
	RunE:  runForget,
}

func init() {
	forgetCmd.Flags().IntVar(&forgetCount, "n", 10, "number of episodes to evict")
}

func runForget(cmd *cobra.Command, args []string) error {
	db, ms, _, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	evicted, err := ms.EvictLowest(forgetCount)
	if err != nil {
		return err
	}
	fmt.Printf("evicted %d of %d requested\n", evicted, forgetCount)

	if err := ms.Save(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
