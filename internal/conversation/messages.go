package conversation

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/umlgen/internal/apperr"
)

const (
	greetingID   = "greeting"
	greetingText = "Hi! I turn project descriptions into UML diagrams. Tell me about the project you want to diagram."
	successText  = "Your diagram is ready. Ask me for changes, or edit the PlantUML code directly."
)

func menuText() string {
	var b strings.Builder
	b.WriteString("Thanks! Which diagram would you like?\n")
	for _, c := range Categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("Or describe a custom diagram in your own words.")
	return b.String()
}

func failureText(err *apperr.Error) string {
	return fmt.Sprintf("Sorry, I couldn't generate the diagram: %s. Send another message to try again, or edit the code manually.",
		strings.TrimSuffix(apperr.UserMessage(err), "."))
}
