package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/mdchat/internal/chapter"
	"github.com/ajitpratap0/mdchat/internal/editor"
	"github.com/ajitpratap0/mdchat/internal/heading"
	"github.com/ajitpratap0/mdchat/internal/metrics"
	"github.com/ajitpratap0/mdchat/internal/models"
)

// Rewrite inserts Text at (Line, Column) of the document.
type Rewrite struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
	From   int    `json:"from_level"`
	To     int    `json:"to_level"`
}

// PlanRenormalize finds the headings in reply and plans the rewrites that
// demote each one by shift levels. reply starts on document line endLine+1,
// right below the role header. A heading that would fall below H6 is clamped
// to H6 and reported; an H6 is left as is.
func PlanRenormalize(reply string, endLine, shift int) ([]Rewrite, []Warning) {
	if shift <= 0 {
		return nil, nil
	}
	lines := chapter.Lines(reply)
	var (
		rewrites []Rewrite
		warnings []Warning
	)
	for _, h := range heading.Extract(reply) {
		abs := h.Line + endLine + 1
		target := h.Level + shift
		if _, err := heading.Shift(h, shift); err != nil {
			target = heading.Clamp(target)
			warnings = append(warnings, Warning{
				Kind:    WarnLevelOverflow,
				Line:    abs,
				Message: fmt.Sprintf("heading %q: H%d cannot be demoted by %d, using H%d", h.Text, h.Level, shift, target),
			})
		}
		n := target - h.Level
		if n <= 0 {
			continue
		}
		_, col, ok := heading.ParseOpener(lines[h.Line])
		if !ok {
			continue
		}
		rewrites = append(rewrites, Rewrite{
			Line:   abs,
			Column: col,
			Text:   strings.Repeat("#", n),
			From:   h.Level,
			To:     target,
		})
	}
	return rewrites, warnings
}

// Renormalize applies the rewrites planned for reply through in and returns
// the cursor adjusted for any rewrite on its own line. A failed rewrite is
// reported as a warning; the others still run.
func Renormalize(ctx context.Context, in *editor.Inserter, reply string, endLine, shift int, cursor models.Position) (models.Position, int, []Warning) {
	rewrites, warnings := PlanRenormalize(reply, endLine, shift)
	for range warnings {
		metrics.Inc(metrics.RenormOverflow)
	}

	demoted := 0
	for _, rw := range rewrites {
		pos := models.Position{Line: rw.Line, Column: rw.Column}
		if _, err := in.Insert(ctx, pos, rw.Text); err != nil {
			warnings = append(warnings, Warning{
				Kind:    WarnRewriteFailed,
				Line:    rw.Line,
				Message: fmt.Sprintf("demoting H%d to H%d: %v", rw.From, rw.To, err),
			})
			continue
		}
		demoted++
		metrics.Inc(metrics.HeadingsDemoted)
		if rw.Line == cursor.Line && rw.Column <= cursor.Column {
			cursor.Column += len(rw.Text)
		}
	}
	return cursor, demoted, warnings
}
