package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var acceptCmd = &cobra.Command{
	Use:   "accept [proposal-id]",
	Short: "Accept a proposal after review",
	Long:  `Marks a proposal as accepted. Proposals that have not been tested yet are tested first; a failing check plan blocks acceptance.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewAction(args[0], "accept", "")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [proposal-id]",
	Short: "Reject a proposal",
	Long:  `Marks a proposal as rejected and records the rejection for the learning loop.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return reviewAction(args[0], "reject", reason)
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply [proposal-id]",
	Short: "Apply an accepted proposal to the working tree",
	Long: `Writes the proposed code into the repo. The target file must still match
the proposal's original snapshot; drift aborts the apply.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewAction(args[0], "apply", "")
	},
}

func init() {
	rejectCmd.Flags().String("reason", "", "why the proposal was rejected")
	rootCmd.AddCommand(acceptCmd, rejectCmd, applyCmd)
}

func reviewAction(id, action, reason string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, database, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	switch action {
	case "accept":
		proposal, err := svc.Accept(ctx, id)
		if err != nil {
			return fmt.Errorf("accepting proposal: %w", err)
		}
		fmt.Printf("Proposal %s accepted (%s)\n", proposal.ID, proposal.FilePath)
	case "reject":
		proposal, err := svc.Reject(ctx, id, strings.TrimSpace(reason))
		if err != nil {
			return fmt.Errorf("rejecting proposal: %w", err)
		}
		fmt.Printf("Proposal %s rejected\n", proposal.ID)
	case "apply":
		proposal, err := svc.Apply(ctx, id)
		if err != nil {
			return fmt.Errorf("applying proposal: %w", err)
		}
		fmt.Printf("Proposal %s applied to %s\n", proposal.ID, proposal.FilePath)
	}
	return nil
}
