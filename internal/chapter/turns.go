package chapter

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/mdchat/internal/heading"
	"github.com/ajitpratap0/mdchat/internal/models"
)

var (
	// ErrNoChapter means no top-level heading precedes the cursor.
	ErrNoChapter = errors.New("no preceding top-level heading")

	// ErrSegmentMismatch means the number of body segments differs from the
	// number of turn headings.
	ErrSegmentMismatch = errors.New("segment count does not match turn headings")
)

// BuildTurns pairs turnHeads[i].Text with segments[i]. Role text is used
// verbatim, including duplicates and empty headings.
func BuildTurns(turnHeads []models.Heading, segments []string) ([]models.Turn, error) {
	if len(turnHeads) != len(segments) {
		return nil, fmt.Errorf("%d headings, %d segments: %w", len(turnHeads), len(segments), ErrSegmentMismatch)
	}
	turns := make([]models.Turn, len(turnHeads))
	for i := range turnHeads {
		turns[i] = models.Turn{Role: turnHeads[i].Text, Content: segments[i]}
	}
	return turns, nil
}

// Conversation is a document carved around one cursor line.
type Conversation struct {
	Bounds       Bounds           `json:"bounds"`
	TurnHeadings []models.Heading `json:"turn_headings"`
	Turns        []models.Turn    `json:"turns"`
	// LastLineLen is the byte length of line Bounds.End-1, where a reply
	// starts being written.
	LastLineLen int `json:"last_line_len"`
}

// Carve extracts headings from text, locates the chapter around cursorLine
// and builds its turns. It returns ErrNoChapter or ErrSegmentMismatch before
// anything could be written to the document.
func Carve(text string, cursorLine int) (*Conversation, error) {
	lines := Lines(text)
	heads := heading.Extract(text)

	b := Locate(cursorLine, heads)
	if !b.Found() {
		return nil, fmt.Errorf("cursor line %d: %w", cursorLine, ErrNoChapter)
	}
	b = b.Resolve(len(lines))

	turnHeads := TurnHeadings(heads, b)
	segments := Segments(lines, SplitPoints(turnHeads, b.End))
	turns, err := BuildTurns(turnHeads, segments)
	if err != nil {
		return nil, fmt.Errorf("chapter %s: %w", b, err)
	}

	return &Conversation{
		Bounds:       b,
		TurnHeadings: turnHeads,
		Turns:        turns,
		LastLineLen:  len(lines[b.End-1]),
	}, nil
}
