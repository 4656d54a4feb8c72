package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/umlgen/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing diagram generation and rendering tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		credential := a.credential(context.Background())
		if credential == "" {
			fmt.Fprintf(os.Stderr, "Warning: no API key found; generate_uml will fail until one is set with `umlgen key set`.\n")
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "umlgen MCP server started on stdio (provider=%s, model=%s)\n", appConfig.Provider, appConfig.Model)

		srv := mcpserver.NewServer(mcpserver.Deps{
			Gateway:    a.gateway,
			Renderer:   a.renderer,
			Credential: credential,
			Observer:   a.recorder(),
			Logger:     logger,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
