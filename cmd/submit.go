package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/proposal"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a code-change proposal to the gate",
	Long: `Submits a proposal on behalf of an agent. The revised code is read from
the file given by --after; the original code is read from the repo unless
--before points at an explicit snapshot.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().String("agent", "", "submitting agent: imperium, guardian, sandbox, conquest")
	submitCmd.Flags().String("file", "", "repo-relative path the proposal targets")
	submitCmd.Flags().String("after", "", "file containing the proposed code")
	submitCmd.Flags().String("before", "", "file containing the original code (defaults to the repo copy)")
	submitCmd.Flags().String("category", "general", "improvement category, e.g. refactor, security, performance")
	submitCmd.Flags().String("reasoning", "", "why this change improves the code")
	submitCmd.Flags().Float64("confidence", 0.5, "agent confidence in [0,1]")
	submitCmd.Flags().Bool("analyze", false, "preview the check plan and score without submitting")
	submitCmd.Flags().Bool("json", false, "output the result as JSON")
	submitCmd.MarkFlagRequired("agent")
	submitCmd.MarkFlagRequired("file")
	submitCmd.MarkFlagRequired("after")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	agent, _ := cmd.Flags().GetString("agent")
	filePath, _ := cmd.Flags().GetString("file")
	afterFile, _ := cmd.Flags().GetString("after")
	beforeFile, _ := cmd.Flags().GetString("before")
	category, _ := cmd.Flags().GetString("category")
	reasoning, _ := cmd.Flags().GetString("reasoning")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	analyzeOnly, _ := cmd.Flags().GetBool("analyze")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	after, err := os.ReadFile(afterFile)
	if err != nil {
		return fmt.Errorf("reading proposed code: %w", err)
	}

	var before []byte
	if beforeFile != "" {
		before, err = os.ReadFile(beforeFile)
		if err != nil {
			return fmt.Errorf("reading original code: %w", err)
		}
	} else {
		// Fall back to the repo copy; a missing file means a new-file proposal.
		before, _ = os.ReadFile(filepath.Join(cfg.RepoRoot, filePath))
	}

	svc, database, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	draft := &proposal.Draft{
		AgentType:       proposal.AgentType(agent),
		FilePath:        filePath,
		CodeBefore:      string(before),
		CodeAfter:       string(after),
		ImprovementType: category,
		Reasoning:       reasoning,
		Confidence:      confidence,
	}

	if analyzeOnly {
		analysis := svc.Analyze(draft)
		if jsonOutput {
			return printJSON(analysis)
		}
		fmt.Printf("Check plan: %v\n", analysis.Plan)
		fmt.Printf("Quality score: %.2f (approval probability %.2f)\n",
			analysis.QualityScore, analysis.ApprovalProbability)
		fmt.Printf("Recommendation: %s\n", analysis.Recommendation)
		return nil
	}

	p, err := svc.Submit(ctx, draft)
	if err != nil {
		return fmt.Errorf("submitting proposal: %w", err)
	}

	if jsonOutput {
		return printJSON(p)
	}
	fmt.Printf("Proposal %s admitted (%s)\n", p.ID, p.Status)
	fmt.Printf("Quality score: %.2f, recommendation: %s\n", p.QualityScore, p.Recommendation)
	fmt.Printf("Run `propgate test %s` to run its checks\n", p.ID)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
