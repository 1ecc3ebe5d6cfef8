package rag

import (
	"fmt"
	"strings"

	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/storage"
)

// historyWindow bounds the conversation carried into the prompt: the last 3
// exchanges, i.e. 6 turns.
const historyWindow = 6

// Turn is one prior message in the conversation, supplied by the caller and
// never mutated here.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// buildPrompt assembles the grounded user prompt: retrieved chunks as
// numbered source blocks, the bounded recent conversation verbatim, and the
// question, all with localized labels.
func buildPrompt(lang document.Language, results []storage.Result, history []Turn, query string) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[%s %d]: %s", sourceLabels[lang], i+1, r.Content)
	}
	context := strings.Join(blocks, "\n\n")

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	historyContext := ""
	if len(history) > 0 {
		lines := make([]string, len(history))
		for i, turn := range history {
			lines[i] = fmt.Sprintf("%s: %s", turn.Role, turn.Content)
		}
		historyContext = fmt.Sprintf("\n%s:\n%s\n", historyLabels[lang], strings.Join(lines, "\n"))
	}

	return fmt.Sprintf("%s:\n%s\n%s\n%s: %s\n\n%s",
		contextLabels[lang], context, historyContext, questionLabels[lang], query, closingLines[lang])
}
