package completion

import (
	"fmt"
	"strings"

	"github.com/longkey1/legalc/internal/legal"
)

const historyHeader = "Previous conversation:"

// SerializeHistory renders messages as "role: content" lines, oldest first.
func SerializeHistory(history []legal.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// Compose builds the final prompt: preamble, serialized history, then the
// caller's prompt, separated by blank lines.
func Compose(req Request) string {
	var parts []string
	if preamble := strings.TrimSpace(req.Preamble); preamble != "" {
		parts = append(parts, preamble)
	}
	if len(req.History) > 0 {
		parts = append(parts, historyHeader+"\n"+SerializeHistory(req.History))
	}
	parts = append(parts, req.Prompt)
	return strings.Join(parts, "\n\n")
}
