package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ajitpratap0/mdchat/internal/chapter"
	"github.com/ajitpratap0/mdchat/internal/chat"
)

const defaultWrapWidth = 100

func turnsCmd() *cobra.Command {
	var (
		line   int
		asJSON bool
		render bool
	)

	cmd := &cobra.Command{
		Use:   "turns FILE",
		Short: "Show the conversation around --line as it would be sent, without calling a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := toCoreLine(line)
			if err != nil {
				return fmt.Errorf("turns: %w", err)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("turns: reading %s: %w", args[0], err)
			}
			conv, err := chat.Preview(string(data), cursor)
			if err != nil {
				return fmt.Errorf("turns: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(conv)
			case render:
				tr, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(wrapWidth()),
				)
				if err != nil {
					return fmt.Errorf("turns: creating renderer: %w", err)
				}
				rendered, err := tr.Render(turnsMarkdown(conv))
				if err != nil {
					return fmt.Errorf("turns: rendering: %w", err)
				}
				fmt.Fprint(out, rendered)
			default:
				fmt.Fprint(out, turnsPlain(conv))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 0, "1-based line inside the conversation (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the conversation as JSON")
	cmd.Flags().BoolVar(&render, "render", false, "pretty-print the conversation for the terminal")
	cmd.MarkFlagsMutuallyExclusive("json", "render")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

// turnsPlain lists each turn with 1-based line numbers.
func turnsPlain(conv *chapter.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chapter: lines %d-%d, %d turns, ~%d tokens\n",
		conv.Bounds.Start+1, conv.Bounds.End, len(conv.Turns), chat.EstimateTokens(conv.Turns))
	for i, t := range conv.Turns {
		fmt.Fprintf(&b, "[%d] %s (line %d, %d bytes): %s\n",
			i+1, t.Role, conv.TurnHeadings[i].Line+1, len(t.Content), truncate(t.Content, 80))
	}
	return b.String()
}

// turnsMarkdown lays the turns out as a Markdown document for rendering.
// Turn bodies go into fenced blocks so their own headings stay inert.
func turnsMarkdown(conv *chapter.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation (lines %d-%d)\n\n", conv.Bounds.Start+1, conv.Bounds.End)
	for _, t := range conv.Turns {
		fence := "```"
		for strings.Contains(t.Content, fence) {
			fence += "`"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n%s", t.Role, fence, t.Content)
		if !strings.HasSuffix(t.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(fence + "\n\n")
	}
	return b.String()
}

func wrapWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWrapWidth
}

// truncate flattens s to one line and cuts it to maxLen runes.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
