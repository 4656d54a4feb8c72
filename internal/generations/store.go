// Package generations archives successful diagram generations so they can
// be listed and reopened later.
package generations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/umlgen/internal/db"
)

// ErrNotFound is returned when no generation has the requested id.
var ErrNotFound = errors.New("generation not found")

// Generation is one archived diagram.
type Generation struct {
	ID             string        `json:"id"`
	SessionID      string        `json:"session_id"`
	ProjectContext string        `json:"project_context"`
	Instruction    string        `json:"instruction"`
	Markup         string        `json:"markup"`
	Provider       string        `json:"provider,omitempty"`
	Model          string        `json:"model,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ListOptions filters List.
type ListOptions struct {
	SessionID string
	Limit     int
}

// Store provides access to the generations table.
type Store struct {
	db *db.DB
}

// NewStore creates a new generations store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts g, assigning an id and timestamp when missing.
func (s *Store) Create(ctx context.Context, g *Generation) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (id, session_id, project_context, instruction, markup, provider, model, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.SessionID, g.ProjectContext, g.Instruction, g.Markup,
		g.Provider, g.Model, g.Duration.Milliseconds(), g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating generation: %w", err)
	}
	return nil
}

// Get retrieves a generation by id.
func (s *Store) Get(ctx context.Context, id string) (*Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, project_context, instruction, markup, provider, model, duration_ms, created_at
		 FROM generations WHERE id = ?`, id)
	g, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting generation: %w", err)
	}
	return g, nil
}

// List returns generations newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Generation, error) {
	query := `SELECT id, session_id, project_context, instruction, markup, provider, model, duration_ms, created_at
		FROM generations`
	var args []any
	if opts.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, opts.SessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var result []Generation
	for rows.Next() {
		g, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

// Delete removes a generation.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting generation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Generation, error) {
	var g Generation
	var durationMS int64
	if err := row.Scan(&g.ID, &g.SessionID, &g.ProjectContext, &g.Instruction, &g.Markup,
		&g.Provider, &g.Model, &durationMS, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Duration = time.Duration(durationMS) * time.Millisecond
	return &g, nil
}
