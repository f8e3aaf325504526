package heading

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

var renderedHeadingRe = regexp.MustCompile(`^<h([1-6])[^>]*>`)

type renderedHeading struct {
	level int
	line  int
}

// extractRendered is the render-then-match strategy: every line is converted
// to HTML on its own and matched against an <hN> pattern. It has no block
// context, which is why Extract does not use it.
func extractRendered(t *testing.T, src string) []renderedHeading {
	t.Helper()
	md := goldmark.New()
	var out []renderedHeading
	for i, line := range strings.Split(src, "\n") {
		var buf bytes.Buffer
		require.NoError(t, md.Convert([]byte(line), &buf))
		m := renderedHeadingRe.FindStringSubmatch(buf.String())
		if m == nil {
			continue
		}
		level, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		out = append(out, renderedHeading{level: level, line: i})
	}
	return out
}

func tokenHeadings(src string) []renderedHeading {
	var out []renderedHeading
	for _, h := range Extract(src) {
		out = append(out, renderedHeading{level: h.Level, line: h.Line})
	}
	return out
}

func TestRenderCompat_AgreesOnPlainDocuments(t *testing.T) {
	docs := []string{
		"# C1\n## Q1\nhello\n## Q2\nworld\n# C2\n",
		"# Notes\n\n## system\nbe brief\n\n## user\nwhat is *this*?\n### detail\n",
		"intro\n\n# Only\n",
	}
	for _, doc := range docs {
		assert.Equal(t, extractRendered(t, doc), tokenHeadings(doc), "doc %q", doc)
	}
}

func TestRenderCompat_DivergesInsideCodeFences(t *testing.T) {
	doc := "# A\n```\n# comment\n```\n"
	rendered := extractRendered(t, doc)
	token := tokenHeadings(doc)

	require.Len(t, token, 1)
	require.Len(t, rendered, 2, "per-line rendering cannot see the fence")
	assert.Equal(t, 2, rendered[1].line)
}
