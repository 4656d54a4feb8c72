package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/logging"
	"github.com/ziadkadry99/umlgen/internal/tui"
)

var chatOutDir string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Build a diagram in a terminal chat",
	Long: `Opens a full-screen chat. Describe your project, choose a diagram type,
then ask for changes. Saved markup, downloads and transcripts go to --out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Log lines would corrupt the full-screen UI.
		if !verbose {
			logger = logging.Discard()
			slog.SetDefault(logger)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctrl := a.newConversation(context.Background())
		defer ctrl.Wait()
		defer ctrl.Reset()

		return tui.Run(tui.Config{
			Controller:  ctrl,
			Renderer:    a.renderer,
			Format:      a.format,
			Credentials: a.keys,
			OutDir:      chatOutDir,
		})
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatOutDir, "out", "o", ".", "directory for saved diagrams and transcripts")
	rootCmd.AddCommand(chatCmd)
}
