package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/markup"
	"github.com/ziadkadry99/umlgen/internal/progress"
)

var renderCmd = &cobra.Command{
	Use:   "render <glob>...",
	Short: "Render PlantUML files to images",
	Long: `Renders every file matching the given patterns through the PlantUML server.
Patterns support ** (for example "docs/**/*.puml"). Images are written next to
each source file unless --out is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("out", "o", "", "directory for rendered images")
	renderCmd.Flags().String("format", "", "image format (png or svg, default from config)")
	renderCmd.Flags().Bool("url-only", false, "print render URLs without downloading")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outDir, _ := cmd.Flags().GetString("out")
	urlOnly, _ := cmd.Flags().GetBool("url-only")

	format, err := diagrams.ParseFormat(appConfig.Format)
	if err != nil {
		return err
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		if format, err = diagrams.ParseFormat(f); err != nil {
			return err
		}
	}

	files, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(args, " "))
	}

	renderer, err := diagrams.NewRenderer(appConfig.RenderURL, diagrams.WithRendererLogger(logger))
	if err != nil {
		return err
	}

	if urlOnly {
		for _, file := range files {
			body, err := readMarkup(file)
			if err != nil {
				return err
			}
			url, err := renderer.URL(body, format)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", file, url)
		}
		return nil
	}

	reporter := progress.NewReporter(os.Stderr)
	reporter.Start(len(files), "Rendering diagrams")

	var failed int
	for i, file := range files {
		reporter.Update(i, filepath.Base(file))
		if _, err := renderFile(ctx, renderer, file, format, outDir); err != nil {
			failed++
			logger.Error("render failed", "file", file, "error", err)
		}
	}
	reporter.Update(len(files), "done")
	reporter.Finish(fmt.Sprintf("Rendered %d of %d diagrams", len(files)-failed, len(files)))

	if failed > 0 {
		return fmt.Errorf("%d diagram(s) failed to render", failed)
	}
	return nil
}

// expandPatterns resolves glob patterns into a sorted, de-duplicated file list.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func readMarkup(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", file, err)
	}
	body := markup.Wrap(string(data))
	if body == "" {
		return "", fmt.Errorf("%s is empty", file)
	}
	return body, nil
}

// renderFile fetches the image for one source file and writes it as
// <stem>.<format> in outDir, or beside the source when outDir is empty.
func renderFile(ctx context.Context, r *diagrams.Renderer, file string, f diagrams.Format, outDir string) (string, error) {
	body, err := readMarkup(file)
	if err != nil {
		return "", err
	}
	img, err := r.Fetch(ctx, body, f)
	if err != nil {
		return "", err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(file)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	path := filepath.Join(dir, stem+"."+string(f))
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
