package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List cortical rules by descending confidence",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	db, _, cs, err := openStores()
	if err != nil {
		return err
	}
	defer db.Close()

	rules := cs.Rules()
	if len(rules) == 0 {
		fmt.Println("no rules yet")
		return nil
	}
	for _, rule := range rules {
		marker := " "
		if cs.ReflexEligible(rule) {
			marker = "*" // fires without deliberation
		}
		fmt.Printf("%s %.3f  %-24s %s", marker, rule.Confidence, rule.Action, rule.Condition.Key())
		if rule.SourceClusterID != "" {
			fmt.Printf("  (%s)", rule.SourceClusterID)
		}
		fmt.Println()
	}
	return nil
}
