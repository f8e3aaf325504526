// Package editor holds the document buffers a chat reply is written into and
// the insertion cursor arithmetic used while a reply streams in.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// ErrInvalidPosition is returned when an insert targets a position outside
// the buffer.
var ErrInvalidPosition = errors.New("position outside buffer")

// Buffer is an editable text buffer. Insert writes text at pos; a non-nil
// error means nothing was written. Text returns the current content.
type Buffer interface {
	Insert(ctx context.Context, pos models.Position, text string) error
	Text() string
}

// Document is an in-memory line buffer. Lines are split on "\n" and columns
// are byte offsets within a line.
type Document struct {
	mu    sync.RWMutex
	lines []string
}

// NewDocument returns a Document holding text.
func NewDocument(text string) *Document {
	return &Document{lines: strings.Split(text, "\n")}
}

// Insert implements Buffer.
func (d *Document) Insert(ctx context.Context, pos models.Position, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertLocked(pos, text)
}

func (d *Document) insertLocked(pos models.Position, text string) error {
	if pos.Line < 0 || pos.Line >= len(d.lines) || pos.Column < 0 || pos.Column > len(d.lines[pos.Line]) {
		return fmt.Errorf("insert at %s in %d lines: %w", pos, len(d.lines), ErrInvalidPosition)
	}
	line := d.lines[pos.Line]
	merged := strings.Split(line[:pos.Column]+text+line[pos.Column:], "\n")
	if len(merged) == 1 {
		d.lines[pos.Line] = merged[0]
		return nil
	}
	out := make([]string, 0, len(d.lines)+len(merged)-1)
	out = append(out, d.lines[:pos.Line]...)
	out = append(out, merged...)
	out = append(out, d.lines[pos.Line+1:]...)
	d.lines = out
	return nil
}

// Text returns the full buffer content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// LineLen returns the byte length of line i, or 0 when i is out of range.
func (d *Document) LineLen(i int) int {
	return len(d.Line(i))
}

// Line returns line i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// snapshot and restore let FileBuffer roll back an insert it failed to persist.
func (d *Document) snapshot() []string {
	return append([]string(nil), d.lines...)
}

func (d *Document) restore(lines []string) {
	d.lines = lines
}
