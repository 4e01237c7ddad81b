package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codevanta/propgate/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize propgate configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the proposal pipeline and generates a .propgate.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
