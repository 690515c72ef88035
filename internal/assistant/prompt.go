package assistant

import (
	_ "embed"
	"strings"
)

//go:embed prompt.txt
var promptTemplate string

// renderPrompt fills the template in a single pass, so placeholders inside
// the question or the snapshot come through as typed.
func renderPrompt(question, snapshot string) string {
	return strings.NewReplacer(
		"{context}", strings.TrimSpace(snapshot),
		"{question}", strings.TrimSpace(question),
	).Replace(promptTemplate)
}
