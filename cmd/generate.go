package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/config"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/progress"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single diagram without the chat",
	Long: `Runs one conversation turn non-interactively: the project description and
diagram type are sent to the configured provider and the resulting PlantUML
is printed or written to --out.`,
	Example: `  umlgen generate --context "An online bookshop" --type "Class Diagram"
  umlgen generate --context-file README.md --type sequence --download`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("context", "c", "", "project description")
	generateCmd.Flags().String("context-file", "", "read the project description from a file")
	generateCmd.Flags().StringP("type", "t", string(conversation.CategoryClass), "diagram type or free-form instruction")
	generateCmd.Flags().StringP("out", "o", "", "write the markup to this file instead of stdout")
	generateCmd.Flags().String("format", "", "image format for the preview URL and download (png or svg)")
	generateCmd.Flags().Bool("download", false, "download the rendered image next to --out")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	projectContext, err := generateContext(cmd)
	if err != nil {
		return err
	}
	instruction, _ := cmd.Flags().GetString("type")
	outPath, _ := cmd.Flags().GetString("out")
	download, _ := cmd.Flags().GetBool("download")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	format := a.format
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		if format, err = diagrams.ParseFormat(f); err != nil {
			return err
		}
	}

	ctrl := a.newConversation(ctx)
	if effect, err := ctrl.Submit(projectContext); err != nil {
		if effect == conversation.EffectCredentialRequired {
			return fmt.Errorf("%s Set %s or run `umlgen key set`", apperr.UserMessage(err), config.APIKeyEnvVar(appConfig.Provider))
		}
		return err
	}

	reporter := progress.NewReporter(os.Stderr)
	reporter.Start(-1, fmt.Sprintf("Generating %s", instruction))
	if _, err := ctrl.Submit(instruction); err != nil {
		reporter.Finish("")
		return err
	}
	ctrl.Wait()
	st := ctrl.State()
	reporter.Finish("")

	if st.Phase == conversation.PhaseError || st.Markup == "" {
		if st.LastError != nil {
			return st.LastError
		}
		return apperr.ErrEmptyMarkup
	}

	if outPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), st.Markup)
	} else {
		if dir := filepath.Dir(outPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}
		if err := os.WriteFile(outPath, []byte(st.Markup+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "PlantUML written to %s\n", outPath)
	}

	if url, err := a.renderer.URL(st.Markup, format); err == nil {
		fmt.Fprintf(os.Stderr, "Preview: %s\n", url)
	}

	if download {
		dir := "."
		if outPath != "" {
			dir = filepath.Dir(outPath)
		}
		path, err := a.renderer.Download(ctx, st.Markup, format, dir)
		if err != nil {
			return fmt.Errorf("downloading diagram: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Diagram downloaded to %s\n", path)
	}

	fmt.Fprintf(os.Stderr, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// generateContext reads the project description from --context or
// --context-file.
func generateContext(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("context")
	file, _ := cmd.Flags().GetString("context-file")
	switch {
	case text != "" && file != "":
		return "", fmt.Errorf("use either --context or --context-file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading context file: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("a project description is required (--context or --context-file)")
	}
	return text, nil
}
