package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/proposal"
)

var testCmd = &cobra.Command{
	Use:   "test [proposal-id]",
	Short: "Run the check plan for a proposal",
	Long: `Runs the proposal through its selected checks in a sandbox and records
the verdict. A failed run feeds the learning loop, which may submit a
revised follow-up proposal.`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().Bool("json", false, "output the tested proposal as JSON")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, database, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	p, err := svc.Test(ctx, args[0])
	if err != nil {
		return fmt.Errorf("testing proposal: %w", err)
	}

	if jsonOutput {
		return printJSON(p)
	}

	fmt.Printf("Proposal %s: %s\n", p.ID, p.Status)
	if p.TestOutput != "" {
		fmt.Printf("Checks: %s\n", p.TestOutput)
	}
	if p.Status == proposal.StatusTestFailed {
		fmt.Println("Failure recorded for the learning loop.")
	}
	return nil
}
