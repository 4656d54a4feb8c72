package credentials

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/umlgen/internal/db"
)

func TestObfuscateRoundTrip(t *testing.T) {
	for _, key := range []string{"AIzaSyExample-key_123", "k", "a-key-longer-than-the-obfuscation-key-itself"} {
		stored := Obfuscate(key)
		if stored == key {
			t.Errorf("Obfuscate(%q) returned the key unchanged", key)
		}
		if got := Reveal(stored); got != key {
			t.Errorf("Reveal(Obfuscate(%q)) = %q", key, got)
		}
	}
}

func TestObfuscateEmpty(t *testing.T) {
	if Obfuscate("") != "" {
		t.Error("Obfuscate(\"\") should be empty")
	}
	if Reveal("") != "" {
		t.Error("Reveal(\"\") should be empty")
	}
}

func TestRevealMalformed(t *testing.T) {
	if got := Reveal("%%% not base64"); got != "" {
		t.Errorf("Reveal(malformed) = %q, want empty", got)
	}
}

func TestObfuscateKnownValue(t *testing.T) {
	// 'a' ^ 'u' = 0x14, base64 "FA=="
	if got := Obfuscate("a"); got != "FA==" {
		t.Errorf("Obfuscate(a) = %q, want FA==", got)
	}
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return map[string]Store{
		"sql":    NewSQLStore(d),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "creds", "credentials.json")),
		"memory": &MemoryStore{},
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if got, err := s.Load(ctx); err != nil || got != "" {
				t.Fatalf("initial Load = %q, %v", got, err)
			}
			if err := s.Save(ctx, "  secret-1  "); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if got, _ := s.Load(ctx); got != "secret-1" {
				t.Errorf("Load = %q, want secret-1", got)
			}
			if err := s.Save(ctx, "secret-2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if got, _ := s.Load(ctx); got != "secret-2" {
				t.Errorf("Load after overwrite = %q", got)
			}

			// Saving blank behaves like Clear.
			if err := s.Save(ctx, ""); err != nil {
				t.Fatalf("Save blank: %v", err)
			}
			if got, _ := s.Load(ctx); got != "" {
				t.Errorf("Load after blank save = %q", got)
			}

			_ = s.Save(ctx, "secret-3")
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if got, _ := s.Load(ctx); got != "" {
				t.Errorf("Load after Clear = %q", got)
			}
			if err := s.Clear(ctx); err != nil {
				t.Errorf("second Clear: %v", err)
			}
		})
	}
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s := NewFileStore(path)
	if err := s.Save(context.Background(), "secret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
	data, _ := os.ReadFile(path)
	if string(data) == "" || strings.Contains(string(data), "secret") {
		t.Errorf("file should hold the obfuscated key, got %s", data)
	}
}

func TestResolvePrecedence(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	_ = store.Save(ctx, "stored")

	t.Setenv("UMLGEN_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if got, _ := Resolve(ctx, store, "google"); got != "stored" {
		t.Errorf("Resolve = %q, want stored", got)
	}

	t.Setenv("GOOGLE_API_KEY", "from-google-env")
	if got, _ := Resolve(ctx, store, "google"); got != "from-google-env" {
		t.Errorf("Resolve = %q, want from-google-env", got)
	}

	t.Setenv("UMLGEN_API_KEY", "from-umlgen-env")
	if got, _ := Resolve(ctx, store, "google"); got != "from-umlgen-env" {
		t.Errorf("Resolve = %q, want from-umlgen-env", got)
	}

	t.Setenv("UMLGEN_API_KEY", "")
	if got, _ := Resolve(ctx, nil, "ollama"); got != "" {
		t.Errorf("Resolve with nil store = %q", got)
	}
}

func TestEnvVars(t *testing.T) {
	got := EnvVars("google")
	want := []string{"UMLGEN_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("EnvVars(google) = %v, want %v", got, want)
	}
	if got := EnvVars("ollama"); len(got) != 1 || got[0] != GenericEnvVar {
		t.Errorf("EnvVars(ollama) = %v", got)
	}
}
