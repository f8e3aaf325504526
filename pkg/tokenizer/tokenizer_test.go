package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		minExpect int
		maxExpect int
	}{
		{"empty", "", 0, 0},
		{"single word", "hello", 1, 3},
		{"single char", "x", 1, 1},
		{"whitespace only", "\n\n", 1, 1},
		{"short sentence", "Go is a great programming language", 5, 15},
		{"longer text", strings.Repeat("word ", 100), 80, 200},
		{"pangram calibration", "The quick brown fox jumps over the lazy dog", 8, 15},
		{"markdown heading", "## assistant\n", 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := EstimateTokens(tt.text)
			assert.GreaterOrEqual(t, tokens, tt.minExpect)
			assert.LessOrEqual(t, tokens, tt.maxExpect)
		})
	}
}

func TestEstimateMessages(t *testing.T) {
	assert.Equal(t, 0, EstimateMessages())
	assert.Equal(t, MessageOverhead, EstimateMessages(""))
	assert.Equal(t, EstimateTokens("hi there")+EstimateTokens("ok")+2*MessageOverhead, EstimateMessages("hi there", "ok"))
}
