// Package chapter carves a markdown document into a conversation: it finds
// the top-level section around a cursor line, splits it at second-level
// headings and maps every split to a role/content turn.
package chapter

import (
	"fmt"

	"github.com/ajitpratap0/mdchat/internal/models"
)

const (
	// NotFound marks a missing top-level heading before the cursor.
	NotFound = -1

	// DocumentEnd marks a chapter that runs to the end of the document.
	DocumentEnd = -1
)

// Bounds is the half-open line interval [Start, End) of one chapter.
type Bounds struct {
	Start int `json:"start_line"`
	End   int `json:"end_line"`
}

// Found reports whether a top-level heading opened the chapter.
func (b Bounds) Found() bool { return b.Start != NotFound }

// Resolve replaces the DocumentEnd sentinel with lineCount.
func (b Bounds) Resolve(lineCount int) Bounds {
	if b.End == DocumentEnd {
		b.End = lineCount
	}
	return b
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d, %d)", b.Start, b.End)
}

// Locate returns the chapter enclosing cursorLine. heads must be sorted by
// line. Start is the last H1 at or before the cursor (NotFound if none); End
// is the first H1 strictly after it (DocumentEnd if none).
func Locate(cursorLine int, heads []models.Heading) Bounds {
	b := Bounds{Start: NotFound, End: DocumentEnd}

	for i := range heads {
		if heads[i].Level != 1 {
			continue
		}
		if heads[i].Line > cursorLine {
			break
		}
		b.Start = heads[i].Line
	}

	for i := len(heads) - 1; i >= 0; i-- {
		if heads[i].Level != 1 {
			continue
		}
		if heads[i].Line <= cursorLine {
			break
		}
		b.End = heads[i].Line
	}

	return b
}
