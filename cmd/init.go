package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize umlgen configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick a language model provider, quality tier and render settings, and writes them to .umlgen.yml.`,
	// The wizard creates the file, so an unreadable config must not block it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
