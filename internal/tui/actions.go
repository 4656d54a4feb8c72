package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/diagrams"
	"github.com/ziadkadry99/umlgen/internal/transcript"
)

const (
	transcriptName = "uml-session.md"
	downloadWait   = 30 * time.Second
)

func exportTranscript(st conversation.State, cfg Config) tea.Cmd {
	return func() tea.Msg {
		var opts transcript.Options
		if st.Markup != "" && cfg.Renderer != nil {
			opts.ImageURL, _ = cfg.Renderer.URL(st.Markup, cfg.Format)
		}
		path := filepath.Join(cfg.OutDir, transcriptName)
		if err := transcript.WriteFile(path, st, opts); err != nil {
			return errMsg{fmt.Errorf("exporting transcript: %w", err)}
		}
		return statusMsg("Transcript written to " + path)
	}
}

func saveMarkup(markup, dir string) tea.Cmd {
	return func() tea.Msg {
		if markup == "" {
			return errMsg{apperr.ErrEmptyMarkup}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errMsg{fmt.Errorf("creating output directory: %w", err)}
		}
		path := filepath.Join(dir, diagrams.FilenameStem+".puml")
		if err := os.WriteFile(path, []byte(markup+"\n"), 0o644); err != nil {
			return errMsg{fmt.Errorf("saving markup: %w", err)}
		}
		return statusMsg("PlantUML saved to " + path)
	}
}

func downloadImage(markup string, cfg Config) tea.Cmd {
	return func() tea.Msg {
		if markup == "" {
			return errMsg{apperr.ErrEmptyMarkup}
		}
		if cfg.Renderer == nil {
			return errMsg{fmt.Errorf("rendering is not configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), downloadWait)
		defer cancel()
		path, err := cfg.Renderer.Download(ctx, markup, cfg.Format, cfg.OutDir)
		if err != nil {
			return errMsg{fmt.Errorf("downloading diagram: %w", err)}
		}
		return statusMsg("Diagram downloaded to " + path)
	}
}
