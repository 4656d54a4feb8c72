package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/diagrams"
)

// Version is set via ldflags at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of umlgen",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("umlgen %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if verbose && appConfig != nil {
			fmt.Printf("  provider:      %s (%s)\n", appConfig.Provider, appConfig.Model)
			fmt.Printf("  render server: %s\n", appConfig.RenderURL)
			if appConfig.RenderURL != diagrams.DefaultBaseURL {
				fmt.Printf("                 (default %s)\n", diagrams.DefaultBaseURL)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
