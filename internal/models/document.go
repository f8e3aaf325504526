package models

import "fmt"

// Heading is one ATX heading found in a document.
// Line and EndLine are 0-based; EndLine is exclusive (typically Line+1).
type Heading struct {
	Level   int    `json:"level"`
	Text    string `json:"text"`
	Line    int    `json:"line"`
	EndLine int    `json:"end_line"`
}

// Turn is one role-labeled message sent to the completion endpoint.
// Role is the literal H2 heading text and is not checked against any vocabulary.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Position is a 0-based (line, column) location in a document buffer.
// Column counts bytes within the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String renders the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}
