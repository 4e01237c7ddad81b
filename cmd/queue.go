package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/pipeline"
	"github.com/codevanta/propgate/internal/progress"
	"github.com/codevanta/propgate/internal/proposal"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List queued proposals",
	Long:  `Lists proposals in the pipeline, newest first. With --run, every pending proposal is put through its checks.`,
	RunE:  runQueue,
}

func init() {
	queueCmd.Flags().String("status", "", "filter by status, e.g. pending, test-passed, rejected")
	queueCmd.Flags().String("agent", "", "filter by agent type")
	queueCmd.Flags().Int("limit", 50, "maximum number of proposals to list")
	queueCmd.Flags().Bool("run", false, "run checks for every pending proposal")
	queueCmd.Flags().Bool("json", false, "output proposals as JSON")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	statusFilter, _ := cmd.Flags().GetString("status")
	agentFilter, _ := cmd.Flags().GetString("agent")
	limit, _ := cmd.Flags().GetInt("limit")
	runChecks, _ := cmd.Flags().GetBool("run")
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

	if runChecks {
		return testPending(ctx, svc)
	}

	proposals, err := svc.Store.List(ctx, proposal.ListFilter{
		Status:    proposal.Status(statusFilter),
		AgentType: proposal.AgentType(agentFilter),
		Limit:     limit,
	})
	if err != nil {
		return fmt.Errorf("listing proposals: %w", err)
	}

	if jsonOutput {
		return printJSON(proposals)
	}

	if len(proposals) == 0 {
		fmt.Println("No proposals in the queue.")
		return nil
	}

	fmt.Printf("%-36s  %-9s  %-12s  %-6s  %s\n", "ID", "AGENT", "STATUS", "SCORE", "FILE")
	for _, p := range proposals {
		fmt.Printf("%-36s  %-9s  %-12s  %-6.2f  %s\n",
			p.ID, p.AgentType, p.Status, p.QualityScore, p.FilePath)
	}
	return nil
}

// testPending runs checks for every pending proposal, with progress output.
func testPending(ctx context.Context, svc *pipeline.Service) error {
	pending, err := svc.Store.List(ctx, proposal.ListFilter{Status: proposal.StatusPending})
	if err != nil {
		return fmt.Errorf("listing pending proposals: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("No pending proposals to test.")
		return nil
	}

	reporter := progress.NewReporter()
	reporter.Start(len(pending))

	var passed, failed int
	for i, p := range pending {
		reporter.Update(i+1, p.FilePath)
		tested, err := svc.Test(ctx, p.ID)
		if err != nil {
			fmt.Printf("\n%s: %v\n", p.ID, err)
			failed++
			continue
		}
		if tested.Status == proposal.StatusTestPassed {
			passed++
		} else {
			failed++
		}
	}
	reporter.Finish()

	fmt.Printf("Tested %d proposals: %d passed, %d failed\n", len(pending), passed, failed)
	return nil
}
