package cli

import (
	"github.com/spf13/cobra"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "brainmimic",
	Short: "Experience-biased cognitive pipeline",
	Long: "Brainmimic scores incoming stimuli, biases them with episodic memory,\n" +
		"and either reacts instantly through learned reflex rules or deliberates.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "state directory (default $BRAINMIMIC_DATA_DIR, then ~/.brainmimic)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(replayCmd)
}
