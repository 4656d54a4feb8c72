// Package transcript exports a conversation as Markdown or standalone HTML.
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/umlgen/internal/conversation"
)

// Options controls what an export contains.
type Options struct {
	// ImageURL, when set, is embedded as a rendered preview of the markup.
	ImageURL string
	// Title defaults to "UML diagram session".
	Title string
}

func (o Options) title() string {
	if o.Title != "" {
		return o.Title
	}
	return "UML diagram session"
}

// Markdown renders st as a Markdown document.
func Markdown(st conversation.State, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", opts.title())
	if st.ProjectContext != "" {
		b.WriteString("## Project\n\n")
		b.WriteString(quote(st.ProjectContext))
		b.WriteString("\n")
	}
	if st.DiagramCategory != "" {
		fmt.Fprintf(&b, "**Latest instruction:** %s\n\n", oneLine(st.DiagramCategory))
	}

	if st.Markup != "" {
		b.WriteString("## Diagram\n\n")
		if opts.ImageURL != "" {
			fmt.Fprintf(&b, "![diagram](%s)\n\n", opts.ImageURL)
		}
		b.WriteString("```plantuml\n")
		b.WriteString(strings.TrimRight(st.Markup, "\n"))
		b.WriteString("\n```\n\n")
	}

	b.WriteString("## Conversation\n\n")
	for _, m := range st.History {
		who := "Assistant"
		if m.FromUser {
			who = "You"
		}
		fmt.Fprintf(&b, "**%s** (%s)\n\n", who, m.Timestamp.Format(time.DateTime))
		b.WriteString(quote(m.Text))
		b.WriteString("\n")
	}
	return b.String()
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// MessageHTML converts one chat message to an HTML fragment. Raw HTML in the
// message is not passed through.
func MessageHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("converting message: %w", err)
	}
	return buf.String(), nil
}

// HTML renders st as a standalone HTML page.
func HTML(st conversation.State, opts Options) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(st, opts)), &body); err != nil {
		return "", fmt.Errorf("converting transcript: %w", err)
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing page template: %w", err)
	}
	var out bytes.Buffer
	err = tmpl.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: opts.title(),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return out.String(), nil
}

// WriteFile exports st to path, choosing HTML for .html/.htm and Markdown
// otherwise.
func WriteFile(path string, st conversation.State, opts Options) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		html, err := HTML(st, opts)
		if err != nil {
			return err
		}
		content = html
	default:
		content = Markdown(st, opts)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func quote(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; line-height: 1.5; }
blockquote { margin: 0 0 1rem; padding: 0.25rem 1rem; border-left: 4px solid #d0d7de; color: #3b4148; }
pre { padding: 1rem; overflow: auto; border-radius: 6px; }
img { max-width: 100%; border: 1px solid #d0d7de; border-radius: 6px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`
