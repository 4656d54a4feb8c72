package diagrams

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/umlgen/internal/apperr"
)

// DefaultBaseURL is the public PlantUML server.
const DefaultBaseURL = "https://www.plantuml.com/plantuml"

// FilenameStem names downloaded images.
const FilenameStem = "uml-diagram"

// maxImageBytes bounds a single rendered image.
const maxImageBytes = 10 << 20

// Format is a rendered image type.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Filename returns the fixed download name for f.
func Filename(f Format) string {
	return FilenameStem + "." + string(f)
}

// Image is a rendered diagram.
type Image struct {
	Format Format
	URL    string
	Data   []byte
}

// Renderer builds diagram URLs and fetches rendered images.
type Renderer struct {
	baseURL string
	client  *http.Client
	cache   *lru.Cache[string, []byte]
	logger  *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithHTTPClient replaces the HTTP client used to fetch images.
func WithHTTPClient(c *http.Client) RendererOption {
	return func(r *Renderer) { r.client = c }
}

// WithRendererLogger sets the logger.
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer creates a Renderer for the PlantUML server at baseURL. An
// empty baseURL selects DefaultBaseURL.
func NewRenderer(baseURL string, opts ...RendererOption) (*Renderer, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cache, err := lru.New[string, []byte](64)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	r := &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// BaseURL returns the server the renderer points at.
func (r *Renderer) BaseURL() string {
	return r.baseURL
}

// URL returns the image URL for markup in format f.
func (r *Renderer) URL(markup string, f Format) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", apperr.ErrEmptyMarkup
	}
	encoded, err := Encode(markup)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", r.baseURL, f, encoded), nil
}

// Fetch renders markup through the server. Results are cached by URL.
func (r *Renderer) Fetch(ctx context.Context, markup string, f Format) (*Image, error) {
	url, err := r.URL(markup, f)
	if err != nil {
		return nil, err
	}
	if data, ok := r.cache.Get(url); ok {
		return &Image{Format: f, URL: url, Data: data}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating render request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching diagram: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading diagram: %w", err)
	}
	// PlantUML answers syntax errors with 400 and an image describing the
	// error, which is still worth showing.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("render server returned status %d", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusOK {
		r.cache.Add(url, data)
	} else {
		r.logger.Warn("render server reported a syntax error", "format", f)
	}
	return &Image{Format: f, URL: url, Data: data}, nil
}

// Download fetches markup in format f and writes it to dir under the fixed
// download name. It returns the written path.
func (r *Renderer) Download(ctx context.Context, markup string, f Format, dir string) (string, error) {
	img, err := r.Fetch(ctx, markup, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, Filename(f))
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
