package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/learning"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show proposal and learning statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats, err := svc.Store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("reading proposal stats: %w", err)
	}

	events := learning.NewStore(database)
	topics, err := events.CountByTopic(ctx)
	if err != nil {
		return fmt.Errorf("reading learning stats: %w", err)
	}

	if jsonOutput {
		return printJSON(map[string]any{
			"proposals": stats,
			"learning":  topics,
		})
	}

	fmt.Printf("Proposals: %d total, %d test-passed, %d test-failed\n",
		stats.Total, stats.TestPassed, stats.TestFailed)

	if len(stats.ByStatus) > 0 {
		fmt.Println("\nBy status:")
		for status, count := range stats.ByStatus {
			fmt.Printf("  %-12s %d\n", status, count)
		}
	}
	if len(stats.ByAgent) > 0 {
		fmt.Println("\nBy agent:")
		for agent, count := range stats.ByAgent {
			fmt.Printf("  %-12s %d\n", agent, count)
		}
	}
	if len(topics) > 0 {
		fmt.Println("\nLearning events:")
		for topic, count := range topics {
			fmt.Printf("  %-12s %d\n", topic, count)
		}
	}
	return nil
}
