// Package tokenizer estimates prompt sizes without a model-specific vocabulary.
package tokenizer

import (
	"strings"
)

// MessageOverhead approximates the tokens a chat endpoint spends framing one
// message (role marker and separators).
const MessageOverhead = 4

// EstimateTokens provides a rough token count estimate: the mean of a
// word-based (~1.3 tokens per word) and a char-based (~4 chars per token)
// guess. Non-empty text counts as at least one token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	wordEstimate := int(float64(words) * 1.3)
	charEstimate := len(text) / 4

	return max((wordEstimate+charEstimate)/2, 1)
}

// EstimateMessages estimates a whole chat request: every message body plus
// MessageOverhead per message.
func EstimateMessages(contents ...string) int {
	total := 0
	for _, c := range contents {
		total += EstimateTokens(c) + MessageOverhead
	}
	return total
}
