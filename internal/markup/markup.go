// Package markup turns free-form language-model output into PlantUML markup.
package markup

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/umlgen/internal/apperr"
)

const (
	StartMarker = "@startuml"
	EndMarker   = "@enduml"
)

// ErrEmpty is returned when no usable markup could be found.
var ErrEmpty = apperr.ErrEmptyMarkup

var (
	// blockPattern matches the shortest @startuml..@enduml span.
	blockPattern = regexp.MustCompile(`(?is)@startuml.*?@enduml`)
	// fencePattern matches a markdown code fence with an optional language tag.
	fencePattern = regexp.MustCompile("```\\w*\\n?")
	startPattern = regexp.MustCompile(`(?i)@startuml`)
	endPattern   = regexp.MustCompile(`(?i)@enduml`)
)

// Normalize extracts diagram markup from raw model output.
//
// A complete @startuml..@enduml block is returned verbatim. Otherwise the
// text is salvaged: code fences are stripped, anything before the start
// marker and after the end marker is dropped. Salvaged text that carries
// neither marker is treated as commentary and rejected with ErrEmpty.
func Normalize(raw string) (string, error) {
	if block := blockPattern.FindString(raw); block != "" {
		return block, nil
	}

	cleaned := fencePattern.ReplaceAllString(strings.TrimSpace(raw), "")
	marked := false
	if loc := startPattern.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[loc[0]:]
		marked = true
	}
	if loc := endPattern.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[1]]
		marked = true
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || !marked {
		return "", ErrEmpty
	}
	return cleaned, nil
}

// HasMarkers reports whether s contains both delimiters in order.
func HasMarkers(s string) bool {
	return blockPattern.MatchString(s)
}

// Wrap adds whichever delimiters are missing from hand-written markup so the
// render service accepts it. Text that is blank stays blank.
func Wrap(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if !startPattern.MatchString(body) {
		body = StartMarker + "\n" + body
	}
	if !endPattern.MatchString(body) {
		body = body + "\n" + EndMarker
	}
	return body
}
