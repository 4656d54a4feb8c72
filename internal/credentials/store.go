package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ziadkadry99/umlgen/internal/db"
)

// SettingKey is the settings row holding the obfuscated key.
const SettingKey = "umlgen_api_key"

// GenericEnvVar overrides every other credential source.
const GenericEnvVar = "UMLGEN_API_KEY"

// Store saves, loads and clears a single credential. Load returns the empty
// string when nothing is stored.
type Store interface {
	Save(ctx context.Context, credential string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// SQLStore keeps the credential in the settings table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a store backed by d.
func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

// Save stores credential. Saving a blank credential clears the store.
func (s *SQLStore) Save(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return s.Clear(ctx)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		SettingKey, Obfuscate(credential))
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (string, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, SettingKey).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}
	return Reveal(stored), nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, SettingKey); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// fileContents is the on-disk layout of a FileStore.
type fileContents struct {
	APIKey string `json:"api_key,omitempty"`
}

// FileStore keeps the credential in a JSON file with owner-only permissions.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns ~/.umlgen/credentials.json.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".umlgen", "credentials.json"), nil
}

func (s *FileStore) Save(_ context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return s.Clear(context.Background())
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(fileContents{APIKey: Obfuscate(credential)}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	var fc fileContents
	if err := json.Unmarshal(data, &fc); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	return Reveal(fc.APIKey), nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// MemoryStore keeps the credential for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	stored string
}

func (s *MemoryStore) Save(_ context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = Obfuscate(strings.TrimSpace(credential))
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Reveal(s.stored), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = ""
	return nil
}

// envVars lists the environment variables consulted per provider.
var envVars = map[string][]string{
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// EnvVars returns the environment variables Resolve consults for provider,
// in order.
func EnvVars(provider string) []string {
	return append([]string{GenericEnvVar}, envVars[provider]...)
}

// Resolve returns the credential to start a session with. The generic
// UMLGEN_API_KEY variable wins, then the provider's own variable, then the
// store. store may be nil.
func Resolve(ctx context.Context, store Store, provider string) (string, error) {
	for _, name := range EnvVars(provider) {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}
	if store == nil {
		return "", nil
	}
	return store.Load(ctx)
}
