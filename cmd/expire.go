package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire stale pending proposals",
	Long:  `Marks pending proposals older than the cutoff as expired so their hashes no longer block resubmission.`,
	RunE:  runExpire,
}

func init() {
	expireCmd.Flags().Int("days", 7, "expire pending proposals older than this many days")
	rootCmd.AddCommand(expireCmd)
}

func runExpire(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, database, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	cutoff := time.Now().AddDate(0, 0, -days)
	n, err := svc.Store.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expiring proposals: %w", err)
	}

	fmt.Printf("Expired %d proposals older than %d days\n", n, days)
	return nil
}
