package generations

import (
	"context"
	"log/slog"

	"github.com/ziadkadry99/umlgen/internal/conversation"
)

// Recorder archives every successful generation turn.
type Recorder struct {
	store    *Store
	provider string
	model    string
	logger   *slog.Logger
}

// NewRecorder creates a Recorder labelling rows with provider and model.
func NewRecorder(store *Store, provider, model string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, provider: provider, model: model, logger: logger}
}

// TurnCompleted implements conversation.Observer. Failed turns are skipped.
func (r *Recorder) TurnCompleted(ctx context.Context, res conversation.TurnResult) {
	if res.Err != nil || res.Markup == "" {
		return
	}
	g := &Generation{
		SessionID:      res.SessionID,
		ProjectContext: res.ProjectContext,
		Instruction:    res.Instruction,
		Markup:         res.Markup,
		Provider:       r.provider,
		Model:          r.model,
		Duration:       res.Duration,
	}
	if err := r.store.Create(ctx, g); err != nil {
		r.logger.Error("archiving generation", "session_id", res.SessionID, "error", err)
		return
	}
	r.logger.Debug("archived generation", "id", g.ID, "session_id", res.SessionID)
}
