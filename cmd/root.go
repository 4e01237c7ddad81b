package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "propgate",
	Short: "Testing and validation gateway for AI-generated code proposals",
	Long: `Propgate receives code-change proposals from AI agents, runs them
through sandboxed checks, scores their quality, and gates what reaches
human review. Failed proposals feed a learning loop that can resubmit
revised versions automatically.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".propgate.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
