package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinmay404/Brain-Mimic-AI-Agent/internal/pipeline"
)

var (
	runOutcome  float64
	runFeatures []string
)

var runCmd = &cobra.Command{
	Use:   "run [content...]",
	Short: "Process one stimulus through the pipeline",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Float64Var(&runOutcome, "outcome", 0, "observed actual utility of acting (omit to assume expectations met)")
	runCmd.Flags().StringArrayVar(&runFeatures, "feature", nil, "extra feature as key=value (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	features, err := parseFeatures(runFeatures)
	if err != nil {
		return err
	}

	db, ms, cs, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	orch := pipeline.New(ms, cs, pipeline.LocalCollaborators(), pipeline.DefaultConfig())
	defer orch.Close()
	if err := orch.SetTickLog(db); err != nil {
		return err
	}

	stim := pipeline.Stimulus{Content: strings.Join(args, " "), Features: features}
	if cmd.Flags().Changed("outcome") {
		outcome := runOutcome
		stim.Outcome = &outcome
	}

	res, err := orch.Tick(cmd.Context(), stim)
	if err != nil {
		return err
	}

	fmt.Printf("tick %s\n", res.TickID)
	fmt.Printf("  threat:    %s (%.2f)\n", res.Threat.Label, res.Threat.Salience)
	fmt.Printf("  recall:    %d episodes, familiarity %.2f\n", res.Bias.NEpisodes, res.Bias.Familiarity)
	fmt.Printf("  path:      %s\n", res.Path)
	fmt.Printf("  action:    %s\n", res.Action)
	fmt.Printf("  utility:   predicted %.3f, actual %.3f (rpe %+.3f)\n",
		res.PredictedUtility, res.ActualUtility, res.RPE)
	fmt.Printf("  encoded:   %v\n", res.Stored)
	cocktail := res.Chem.Cocktail()
	fmt.Printf("  chemistry: da=%.2f se=%.2f ne=%.2f mode=%s\n",
		res.Chem.Dopamine, res.Chem.Serotonin, res.Chem.Norepinephrine, cocktail.Mode)

	if err := ms.Save(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
