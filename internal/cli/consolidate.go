package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/pipeline"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run one sleep cycle: decay dopamine tags and distill rules",
	Args:  cobra.NoArgs,
	RunE:  runConsolidate,
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	db, ms, cs, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	orch := pipeline.New(ms, cs, pipeline.LocalCollaborators(), pipeline.DefaultConfig())
	defer orch.Close()

	report, err := orch.Consolidate(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("episodes:     %d\n", report.Episodes)
	fmt.Printf("clusters:     %d\n", report.Clusters)
	fmt.Printf("rules added:  %d\n", report.RulesAdded)

	if err := ms.Save(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
