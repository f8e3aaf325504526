// Package heading extracts ATX headings from markdown with their source line
// spans. Block structure comes from goldmark's parser, so a "#" line inside a
// fenced code block, an HTML block or a paragraph continuation is never
// reported as a heading.
package heading

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ajitpratap0/mdchat/internal/models"
)

const (
	// MinLevel and MaxLevel bound ATX heading levels.
	MinLevel = 1
	MaxLevel = 6

	// maxIndent is how many leading spaces an ATX opener may carry.
	maxIndent = 3
)

// Extract returns every top-level ATX heading in src, sorted by line.
// Headings nested in container blocks (block quotes, list items) are not part
// of the document outline and are skipped.
func Extract(src string) []models.Heading {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	idx := newLineIndex(source)

	var heads []models.Heading
	next := 0 // first line not yet claimed by a block we have located
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			if last, found := lastLine(n, idx); found && last+1 > next {
				next = last + 1
			}
			continue
		}

		line, found := headingLine(h, idx, next)
		if !found {
			continue
		}
		if last, ok := lastLine(h, idx); ok && last+1 > next {
			next = last + 1
		} else if line+1 > next {
			next = line + 1
		}

		// Setext headings carry their text on a plain line; only "#" openers count.
		if !isATXOpener(idx.text(line), h.Level) {
			continue
		}
		heads = append(heads, models.Heading{
			Level:   h.Level,
			Text:    headingText(h, source),
			Line:    line,
			EndLine: line + 1,
		})
	}

	// Defensive: everything downstream assumes ascending line order.
	sort.SliceStable(heads, func(i, j int) bool { return heads[i].Line < heads[j].Line })
	return heads
}

// OfLevel returns the headings with the given level, preserving order.
func OfLevel(heads []models.Heading, level int) []models.Heading {
	var out []models.Heading
	for i := range heads {
		if heads[i].Level == level {
			out = append(out, heads[i])
		}
	}
	return out
}

// headingLine finds the 0-based source line of h. Empty headings ("#", "## ##")
// have no content segment, so their line is recovered by scanning forward from
// the first unclaimed line for an opener of the right level.
func headingLine(h *ast.Heading, idx *lineIndex, from int) (int, bool) {
	if h.Lines().Len() > 0 {
		seg := h.Lines().At(0)
		return idx.lineOf(seg.Start), true
	}
	for line := from; line < idx.count(); line++ {
		if isATXOpener(idx.text(line), h.Level) {
			return line, true
		}
	}
	return 0, false
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimSpace(buf.String())
}

// lastLine returns the last source line covered by n or any block below it.
func lastLine(n ast.Node, idx *lineIndex) (int, bool) {
	last, found := -1, false
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			end := seg.Stop - 1
			if end < seg.Start {
				end = seg.Start
			}
			if l := idx.lineOf(end); l > last {
				last, found = l, true
			}
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if l, ok := lastLine(c, idx); ok && l > last {
			last, found = l, true
		}
	}
	return last, found
}

// isATXOpener reports whether line opens an ATX heading of exactly level.
func isATXOpener(line string, level int) bool {
	got, _, ok := ParseOpener(line)
	return ok && got == level
}

// ParseOpener reports the level of the ATX opener on line and the byte column
// of its first "#". It does not look at block context; use Extract for that.
func ParseOpener(line string) (level, column int, ok bool) {
	line = strings.TrimSuffix(line, "\r")
	for column < len(line) && column < maxIndent && line[column] == ' ' {
		column++
	}
	i := column
	for i < len(line) && line[i] == '#' {
		i++
	}
	level = i - column
	if level < MinLevel || level > MaxLevel {
		return 0, 0, false
	}
	if i < len(line) && line[i] != ' ' && line[i] != '\t' {
		return 0, 0, false
	}
	return level, column, true
}

// lineIndex maps byte offsets to 0-based line numbers.
type lineIndex struct {
	source []byte
	starts []int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{source: source, starts: starts}
}

func (x *lineIndex) count() int { return len(x.starts) }

func (x *lineIndex) lineOf(offset int) int {
	return sort.SearchInts(x.starts, offset+1) - 1
}

func (x *lineIndex) text(line int) string {
	if line < 0 || line >= len(x.starts) {
		return ""
	}
	end := len(x.source)
	if line+1 < len(x.starts) {
		end = x.starts[line+1] - 1
	}
	return string(x.source[x.starts[line]:end])
}
