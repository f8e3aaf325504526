package chat

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/mdchat/internal/chapter"
)

var (
	// ErrNoChapter means no H1 precedes the cursor line.
	ErrNoChapter = chapter.ErrNoChapter

	// ErrSegmentMismatch means the chapter could not be split into turns.
	ErrSegmentMismatch = chapter.ErrSegmentMismatch

	// ErrNoTurns means the chapter holds no H2 heading to send.
	ErrNoTurns = errors.New("chapter has no second-level headings to send")
)

// StreamError reports a completion transport failure. Whatever was written
// before the failure stays in the document.
type StreamError struct {
	Err error
	// Received counts fragments read before the failure.
	Received int
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("completion stream failed after %d fragments: %v", e.Received, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Warning kinds.
const (
	WarnFragmentLost  = "fragment_lost"
	WarnLevelOverflow = "level_overflow"
	WarnRewriteFailed = "rewrite_failed"
)

// Warning is a non-fatal problem met while writing a reply.
type Warning struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}
