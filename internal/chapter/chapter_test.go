package chapter

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mdchat/internal/heading"
	"github.com/ajitpratap0/mdchat/internal/models"
)

const scenarioDoc = "# C1\n## Q1\nhello\n## Q2\nworld\n# C2\n"

func TestLocate_Scenario(t *testing.T) {
	heads := heading.Extract(scenarioDoc)
	b := Locate(2, heads)
	assert.Equal(t, Bounds{Start: 0, End: 5}, b)
}

func TestLocate_CursorOnH1CountsAsInside(t *testing.T) {
	heads := heading.Extract(scenarioDoc)
	assert.Equal(t, Bounds{Start: 5, End: DocumentEnd}, Locate(5, heads))
	assert.Equal(t, Bounds{Start: 0, End: 5}, Locate(0, heads))
}

func TestLocate_NoH1(t *testing.T) {
	heads := heading.Extract("## only\ntext\n")
	b := Locate(1, heads)
	assert.False(t, b.Found())
	assert.Equal(t, NotFound, b.Start)
}

func TestLocate_CursorBeforeFirstH1(t *testing.T) {
	heads := heading.Extract("intro\n# A\nbody\n")
	b := Locate(0, heads)
	assert.False(t, b.Found())
	assert.Equal(t, 1, b.End)
}

func TestBounds_Resolve(t *testing.T) {
	assert.Equal(t, Bounds{Start: 3, End: 10}, Bounds{Start: 3, End: DocumentEnd}.Resolve(10))
	assert.Equal(t, Bounds{Start: 3, End: 7}, Bounds{Start: 3, End: 7}.Resolve(10))
}

// TestLocate_MatchesBruteForce checks Locate against a direct definition on
// random sorted heading sequences.
func TestLocate_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 500; iter++ {
		var heads []models.Heading
		line := 0
		for n := rng.IntN(12); n > 0; n-- {
			line += 1 + rng.IntN(4)
			heads = append(heads, models.Heading{Level: 1 + rng.IntN(3), Line: line})
		}
		cursor := rng.IntN(line + 3)

		wantStart, wantEnd := NotFound, DocumentEnd
		for _, h := range heads {
			if h.Level != 1 {
				continue
			}
			if h.Line <= cursor && h.Line > wantStart {
				wantStart = h.Line
			}
			if h.Line > cursor && (wantEnd == DocumentEnd || h.Line < wantEnd) {
				wantEnd = h.Line
			}
		}

		got := Locate(cursor, heads)
		require.Equal(t, Bounds{Start: wantStart, End: wantEnd}, got, "cursor %d heads %v", cursor, heads)
	}
}

func TestSegments_Scenario(t *testing.T) {
	lines := Lines(scenarioDoc)
	heads := heading.Extract(scenarioDoc)
	b := Locate(2, heads).Resolve(len(lines))

	turnHeads := TurnHeadings(heads, b)
	require.Len(t, turnHeads, 2)
	assert.Equal(t, 1, turnHeads[0].Line)
	assert.Equal(t, 3, turnHeads[1].Line)

	points := SplitPoints(turnHeads, b.End)
	assert.Equal(t, []int{1, 3, 5}, points)
	assert.Equal(t, []string{"hello\n", "world\n"}, Segments(lines, points))
}

func TestSegments_LastChapterWithoutTrailingNewline(t *testing.T) {
	doc := "# C\n## user\nline one\n\nline two"
	lines := Lines(doc)
	heads := heading.Extract(doc)
	b := Locate(0, heads).Resolve(len(lines))
	segs := Segments(lines, SplitPoints(TurnHeadings(heads, b), b.End))
	assert.Equal(t, []string{"line one\n\nline two"}, segs)
}

func TestSegments_KeepsBlankLinesVerbatim(t *testing.T) {
	doc := "# C\n## a\n\nx\n\n\n## b\ny\n"
	lines := Lines(doc)
	heads := heading.Extract(doc)
	b := Locate(0, heads).Resolve(len(lines))
	segs := Segments(lines, SplitPoints(TurnHeadings(heads, b), b.End))
	assert.Equal(t, []string{"\nx\n\n\n", "y\n"}, segs)
}

func TestSegments_CountEqualsTurnHeadings(t *testing.T) {
	docs := []string{
		"# C\n",
		"# C\n## a\n",
		"# C\n## a\nx\n## b\n## c\nz",
		"# C\nintro\n## a\nx\n### sub\ny\n## b\n# D\n## other\n",
	}
	for _, doc := range docs {
		lines := Lines(doc)
		heads := heading.Extract(doc)
		b := Locate(0, heads).Resolve(len(lines))
		turnHeads := TurnHeadings(heads, b)
		segs := Segments(lines, SplitPoints(turnHeads, b.End))
		assert.Len(t, segs, len(turnHeads), "doc %q", doc)
	}
}

func TestSegments_RoundTrip(t *testing.T) {
	docs := []string{
		scenarioDoc,
		"# C\n## system\nbe terse\n\n## user\nhi\n```\n# not a chapter\n```\n## assistant\nhello\n",
		"# C\n## a\nno trailing newline",
	}
	for _, doc := range docs {
		lines := Lines(doc)
		heads := heading.Extract(doc)
		b := Locate(0, heads).Resolve(len(lines))
		turnHeads := TurnHeadings(heads, b)
		require.NotEmpty(t, turnHeads)
		segs := Segments(lines, SplitPoints(turnHeads, b.End))

		var rebuilt strings.Builder
		for i, h := range turnHeads {
			rebuilt.WriteString(lines[h.Line])
			rebuilt.WriteByte('\n')
			rebuilt.WriteString(segs[i])
		}
		assert.Equal(t, span(lines, turnHeads[0].Line, b.End), rebuilt.String(), "doc %q", doc)
	}
}

func TestBuildTurns_IndexAligned(t *testing.T) {
	turnHeads := []models.Heading{{Level: 2, Text: "Q1"}, {Level: 2, Text: "Q1"}, {Level: 2, Text: ""}}
	turns, err := BuildTurns(turnHeads, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []models.Turn{
		{Role: "Q1", Content: "a"},
		{Role: "Q1", Content: "b"},
		{Role: "", Content: "c"},
	}, turns)
}

func TestBuildTurns_Mismatch(t *testing.T) {
	_, err := BuildTurns([]models.Heading{{Text: "a"}}, nil)
	assert.ErrorIs(t, err, ErrSegmentMismatch)
}

func TestCarve_Scenario(t *testing.T) {
	conv, err := Carve(scenarioDoc, 2)
	require.NoError(t, err)
	assert.Equal(t, Bounds{Start: 0, End: 5}, conv.Bounds)
	assert.Equal(t, []models.Turn{
		{Role: "Q1", Content: "hello\n"},
		{Role: "Q2", Content: "world\n"},
	}, conv.Turns)
	assert.Equal(t, len("world"), conv.LastLineLen)
}

func TestCarve_NoChapter(t *testing.T) {
	_, err := Carve("## Q\nno top heading\n", 1)
	assert.ErrorIs(t, err, ErrNoChapter)
}

func TestCarve_LastChapterRunsToDocumentEnd(t *testing.T) {
	conv, err := Carve(scenarioDoc+"## Q3\nmore\n", 6)
	require.NoError(t, err)
	assert.Equal(t, Bounds{Start: 5, End: 9}, conv.Bounds)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, "more\n", conv.Turns[0].Content)
	assert.Equal(t, 0, conv.LastLineLen)
}
