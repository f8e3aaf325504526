package editor

import (
	"context"
	"strings"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// Advance returns the cursor position right after text once it has been
// inserted at pos. It depends only on pos and text: without a newline the
// column moves by len(text); with k newlines the line moves by k and the
// column becomes the length of the text after the last newline.
func Advance(pos models.Position, text string) models.Position {
	k := strings.Count(text, "\n")
	if k == 0 {
		return models.Position{Line: pos.Line, Column: pos.Column + len(text)}
	}
	return models.Position{Line: pos.Line + k, Column: len(text) - strings.LastIndex(text, "\n") - 1}
}

// Inserter writes text into a Buffer and hands back the advanced cursor.
// The cursor is a value owned by the caller; Inserter keeps no position.
type Inserter struct {
	buf Buffer
}

// NewInserter returns an Inserter writing into buf.
func NewInserter(buf Buffer) *Inserter {
	return &Inserter{buf: buf}
}

// Insert writes text at pos once. On success it returns Advance(pos, text);
// on failure it returns pos unchanged with the buffer's error.
func (in *Inserter) Insert(ctx context.Context, pos models.Position, text string) (models.Position, error) {
	if err := in.buf.Insert(ctx, pos, text); err != nil {
		return pos, err
	}
	return Advance(pos, text), nil
}
