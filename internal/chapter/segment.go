package chapter

import (
	"sort"
	"strings"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// TurnLevel is the heading level that opens a turn inside a chapter.
const TurnLevel = 2

// Lines splits text into lines on "\n". A trailing newline yields a final
// empty line, so len(Lines(text)) is the document's line count.
func Lines(text string) []string {
	return strings.Split(text, "\n")
}

// TurnHeadings returns the H2 headings with b.Start <= line < b.End, sorted
// by line. b must be resolved.
func TurnHeadings(heads []models.Heading, b Bounds) []models.Heading {
	var out []models.Heading
	for i := range heads {
		h := heads[i]
		if h.Level == TurnLevel && h.Line >= b.Start && h.Line < b.End {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// SplitPoints returns the lines of turnHeads followed by end as a sentinel.
func SplitPoints(turnHeads []models.Heading, end int) []int {
	points := make([]int, 0, len(turnHeads)+1)
	for i := range turnHeads {
		points = append(points, turnHeads[i].Line)
	}
	return append(points, end)
}

// Segments returns, for every adjacent pair (a, b) of points, the text of
// lines [a+1, b). The heading line a is excluded. Each line keeps the newline
// that ended it in the source, so whitespace is preserved verbatim.
func Segments(lines []string, points []int) []string {
	if len(points) < 2 {
		return nil
	}
	out := make([]string, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		out = append(out, span(lines, points[i]+1, points[i+1]))
	}
	return out
}

// span joins lines [from, to), restoring the newline after every line that
// had one in the source.
func span(lines []string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(lines) {
		to = len(lines)
	}
	var sb strings.Builder
	for i := from; i < to; i++ {
		sb.WriteString(lines[i])
		if i < len(lines)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
