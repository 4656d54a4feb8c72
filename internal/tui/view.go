package tui

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
)

const helpText = "enter send • ctrl+r new • ctrl+k key • ctrl+s save .puml • ctrl+d download • ctrl+e export • esc quit"

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("UMLGen"))
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(phaseLabel(m.state)))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(apperr.UserMessage(m.err)))
	case m.state.Phase == conversation.PhaseGenerating:
		b.WriteString(m.spinner.View() + " Generating diagram...")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(inputStyle.Render(m.textinput.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

func phaseLabel(st conversation.State) string {
	key := "no API key"
	if st.HasCredential {
		key = "API key set"
	}
	var phase string
	switch st.Phase {
	case conversation.PhaseAwaitingContext:
		phase = "describe your project"
	case conversation.PhaseAwaitingCategory:
		phase = "choose a diagram"
	case conversation.PhaseGenerating:
		phase = "generating"
	case conversation.PhaseReady:
		phase = "diagram ready"
	case conversation.PhaseError:
		phase = "last request failed"
	}
	return fmt.Sprintf("%s · %s", phase, key)
}

// historyMarkdown renders the conversation and current markup as Markdown.
func historyMarkdown(st conversation.State, imageURL string) string {
	var b strings.Builder
	for _, msg := range st.History {
		who := "UMLGen"
		if msg.FromUser {
			who = "You"
		}
		fmt.Fprintf(&b, "**%s** _%s_\n\n%s\n\n", who, msg.Timestamp.Format("15:04"), msg.Text)
	}
	if st.Markup != "" {
		b.WriteString("---\n\n```plantuml\n")
		b.WriteString(strings.TrimRight(st.Markup, "\n"))
		b.WriteString("\n```\n\n")
		if imageURL != "" {
			fmt.Fprintf(&b, "Preview: %s\n", imageURL)
		}
	}
	return b.String()
}

func (m Model) renderHistory() string {
	var url string
	if m.state.Markup != "" && m.cfg.Renderer != nil {
		url, _ = m.cfg.Renderer.URL(m.state.Markup, m.cfg.Format)
	}
	md := historyMarkdown(m.state, url)
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
