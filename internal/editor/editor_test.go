package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mdchat/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdvance(t *testing.T) {
	cases := []struct {
		name string
		pos  models.Position
		text string
		want models.Position
	}{
		{"single line", models.Position{Line: 3, Column: 5}, "abc", models.Position{Line: 3, Column: 8}},
		{"one newline", models.Position{Line: 3, Column: 5}, "a\nbc", models.Position{Line: 4, Column: 2}},
		{"trailing newline", models.Position{Line: 0, Column: 7}, "x\n", models.Position{Line: 1, Column: 0}},
		{"role header", models.Position{Line: 4, Column: 5}, "\n## assistant\n", models.Position{Line: 6, Column: 0}},
		{"empty", models.Position{Line: 2, Column: 1}, "", models.Position{Line: 2, Column: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Advance(tc.pos, tc.text))
		})
	}
}

func TestDocument_Insert(t *testing.T) {
	doc := NewDocument("# C1\n## Q1\nhello\n# C2\n")
	require.NoError(t, doc.Insert(context.Background(), models.Position{Line: 2, Column: 5}, "\n## assistant\nhi"))
	assert.Equal(t, "# C1\n## Q1\nhello\n## assistant\nhi\n# C2\n", doc.Text())
	assert.Equal(t, 7, doc.LineCount())
	assert.Equal(t, "hi", doc.Line(4))
	assert.Equal(t, "", doc.Line(99))
	assert.Equal(t, 12, doc.LineLen(3))
	assert.Equal(t, 0, doc.LineLen(-1))
}

func TestDocument_InsertMidLine(t *testing.T) {
	doc := NewDocument("abcdef")
	require.NoError(t, doc.Insert(context.Background(), models.Position{Line: 0, Column: 3}, "X\nY"))
	assert.Equal(t, "abcX\nYdef", doc.Text())
}

func TestDocument_InsertInvalidPosition(t *testing.T) {
	doc := NewDocument("one\ntwo")
	ctx := context.Background()
	assert.ErrorIs(t, doc.Insert(ctx, models.Position{Line: 2, Column: 0}, "x"), ErrInvalidPosition)
	assert.ErrorIs(t, doc.Insert(ctx, models.Position{Line: 0, Column: 4}, "x"), ErrInvalidPosition)
	assert.ErrorIs(t, doc.Insert(ctx, models.Position{Line: -1, Column: 0}, "x"), ErrInvalidPosition)
	assert.Equal(t, "one\ntwo", doc.Text())
}

func TestDocument_InsertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := NewDocument("a")
	assert.ErrorIs(t, doc.Insert(ctx, models.Position{}, "x"), context.Canceled)
}

// TestInserter_CursorTracksText writes a stream of fragments and checks the
// cursor always lands at the end of what was written.
func TestInserter_CursorTracksText(t *testing.T) {
	doc := NewDocument("# C\n## user\nq")
	in := NewInserter(doc)
	ctx := context.Background()

	pos := models.Position{Line: 2, Column: 1}
	var err error
	for _, frag := range []string{"\n## assistant\n", "Hel", "lo\nwor", "ld", "\n\n# T", "itle"} {
		pos, err = in.Insert(ctx, pos, frag)
		require.NoError(t, err)
	}
	assert.Equal(t, "# C\n## user\nq\n## assistant\nHello\nworld\n\n# Title", doc.Text())
	assert.Equal(t, models.Position{Line: 7, Column: len("# Title")}, pos)
}

type failingBuffer struct{}

func (failingBuffer) Insert(context.Context, models.Position, string) error {
	return errors.New("edit rejected")
}

func (failingBuffer) Text() string { return "" }

func TestInserter_FailureKeepsCursor(t *testing.T) {
	in := NewInserter(failingBuffer{})
	start := models.Position{Line: 1, Column: 2}
	pos, err := in.Insert(context.Background(), start, "lost\ntext")
	require.Error(t, err)
	assert.Equal(t, start, pos)
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestFileBuffer_PersistsEveryInsert(t *testing.T) {
	path := writeDoc(t, "# C\n## user\nhi\n")
	fb, err := OpenFile(path, testLogger())
	require.NoError(t, err)
	defer func() { _ = fb.Close() }()

	require.NoError(t, fb.Insert(context.Background(), models.Position{Line: 2, Column: 2}, "\n## assistant\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# C\n## user\nhi\n## assistant\n\n", string(data))
	assert.Equal(t, string(data), fb.Text())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestFileBuffer_Lock(t *testing.T) {
	path := writeDoc(t, "# C\n")
	fb, err := OpenFile(path, testLogger())
	require.NoError(t, err)

	_, err = OpenFile(path, testLogger())
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, fb.Close())
	fb2, err := OpenFile(path, testLogger())
	require.NoError(t, err)
	require.NoError(t, fb2.Close())
}

func TestFileBuffer_MissingFileReleasesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")
	_, err := OpenFile(path, testLogger())
	require.Error(t, err)
	_, statErr := os.Stat(path + lockSuffix)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileBuffer_RollsBackWhenPersistFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(path, []byte("# C\n"), 0o644))
	fb, err := OpenFile(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	err = fb.Insert(context.Background(), models.Position{Line: 0, Column: 3}, "X")
	require.Error(t, err)
	assert.Equal(t, "# C\n", fb.Text())
	assert.NoError(t, fb.Close())
}
