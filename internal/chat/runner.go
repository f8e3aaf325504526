// Package chat drives one chat turn: it carves the conversation around the
// cursor, streams a completion into the document below it and demotes the
// headings of the reply so they cannot open new turns or chapters.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ajitpratap0/mdchat/internal/chapter"
	"github.com/ajitpratap0/mdchat/internal/editor"
	"github.com/ajitpratap0/mdchat/internal/llm"
	"github.com/ajitpratap0/mdchat/internal/metrics"
	"github.com/ajitpratap0/mdchat/internal/models"
	"github.com/ajitpratap0/mdchat/pkg/tokenizer"
)

const (
	DefaultAssistantRole = "assistant"
	DefaultDemoteLevels  = 2
)

// Options tunes a Runner.
type Options struct {
	// AssistantRole is written as the text of the reply's H2 header.
	AssistantRole string
	// DemoteLevels is how far reply headings are pushed down. Zero means
	// DefaultDemoteLevels; a negative value turns demotion off.
	DemoteLevels int
	// OnFragment, if set, sees every fragment after it lands in the document.
	OnFragment func(fragment string)
}

// Request names the document and the cursor line. The document text is read
// from the buffer once the run holds the document's lock.
type Request struct {
	// Key identifies the document. Runs sharing a key never overlap.
	Key        string
	CursorLine int
	Model      string
}

// Result describes a finished or interrupted run.
type Result struct {
	InvocationID  string          `json:"invocation_id"`
	Bounds        chapter.Bounds  `json:"bounds"`
	Turns         []models.Turn   `json:"turns"`
	PromptTokens  int             `json:"prompt_tokens"`
	Reply         string          `json:"reply"`
	Cursor        models.Position `json:"cursor"`
	Fragments     int             `json:"fragments"`
	LostFragments int             `json:"lost_fragments"`
	Demoted       int             `json:"demoted"`
	Warnings      []Warning       `json:"warnings,omitempty"`
}

// Runner executes chat turns against a Completer.
type Runner struct {
	completer llm.Completer
	opts      Options
	logger    *slog.Logger
	locks     keyedMutex
}

// NewRunner creates a Runner. Empty options take their defaults.
func NewRunner(completer llm.Completer, opts Options, logger *slog.Logger) *Runner {
	if opts.AssistantRole == "" {
		opts.AssistantRole = DefaultAssistantRole
	}
	if opts.DemoteLevels == 0 {
		opts.DemoteLevels = DefaultDemoteLevels
	}
	return &Runner{completer: completer, opts: opts, logger: logger}
}

// Preview carves the conversation around cursorLine without contacting the
// model or touching any document.
func (r *Runner) Preview(text string, cursorLine int) (*chapter.Conversation, error) {
	return Preview(text, cursorLine)
}

// Preview is Runner.Preview for callers without a completer.
func Preview(text string, cursorLine int) (*chapter.Conversation, error) {
	conv, err := chapter.Carve(text, cursorLine)
	if err != nil {
		return nil, err
	}
	if len(conv.Turns) == 0 {
		return nil, fmt.Errorf("chapter %s: %w", conv.Bounds, ErrNoTurns)
	}
	return conv, nil
}

// EstimateTokens roughly sizes the request carrying turns.
func EstimateTokens(turns []models.Turn) int {
	contents := make([]string, len(turns))
	for i, t := range turns {
		contents[i] = t.Content
	}
	return tokenizer.EstimateMessages(contents...)
}

// Run sends the conversation around req.CursorLine of buf and writes the reply
// at the end of the chapter, under an H2 role header. buf is read only after
// earlier runs sharing req.Key have finished. Precondition errors return
// before buf is touched. A transport failure returns *StreamError with
// the partial Result; what was written stays written and its headings are
// still demoted.
func (r *Runner) Run(ctx context.Context, req Request, buf editor.Buffer) (*Result, error) {
	unlock := r.locks.Lock(req.Key)
	defer unlock()

	metrics.Inc(metrics.ChatTotal)
	id := uuid.NewString()
	logger := r.logger.With("invocation", id)

	conv, err := r.Preview(buf.Text(), req.CursorLine)
	if err != nil {
		metrics.Inc(metrics.ChatFailed)
		return nil, err
	}
	res := &Result{
		InvocationID: id,
		Bounds:       conv.Bounds,
		Turns:        conv.Turns,
		PromptTokens: EstimateTokens(conv.Turns),
	}
	logger.Info("chat: sending", "chapter", conv.Bounds.String(), "turns", len(conv.Turns),
		"model", req.Model, "approx_tokens", res.PromptTokens)

	stream, err := r.completer.Stream(ctx, req.Model, conv.Turns)
	if err != nil {
		metrics.Inc(metrics.ChatFailed)
		return res, &StreamError{Err: err}
	}
	defer func() { _ = stream.Close() }()

	in := editor.NewInserter(buf)
	pos := models.Position{Line: conv.Bounds.End - 1, Column: conv.LastLineLen}
	pos, err = in.Insert(ctx, pos, "\n## "+r.opts.AssistantRole+"\n")
	if err != nil {
		metrics.Inc(metrics.ChatFailed)
		return res, fmt.Errorf("writing role header: %w", err)
	}
	res.Cursor = pos

	var reply strings.Builder
	for stream.Next() {
		frag := stream.Current()
		res.Fragments++
		next, err := in.Insert(ctx, pos, frag)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			res.LostFragments++
			metrics.Inc(metrics.FragmentsLost)
			logger.Warn("chat: fragment lost", "at", pos.String(), "error", err)
			res.Warnings = append(res.Warnings, Warning{
				Kind:    WarnFragmentLost,
				Line:    pos.Line,
				Message: fmt.Sprintf("inserting %d bytes at %s: %v", len(frag), pos, err),
			})
			continue
		}
		metrics.Inc(metrics.FragmentsInserted)
		pos = next
		reply.WriteString(frag)
		if r.opts.OnFragment != nil {
			r.opts.OnFragment(frag)
		}
	}
	streamErr := stream.Err()

	res.Reply = reply.String()
	res.Cursor = pos
	if res.Reply != "" {
		// The reply is demoted even when the run was canceled.
		cursor, demoted, warnings := Renormalize(context.WithoutCancel(ctx), in, res.Reply, conv.Bounds.End, r.opts.DemoteLevels, pos)
		res.Cursor = cursor
		res.Demoted = demoted
		res.Warnings = append(res.Warnings, warnings...)
	}
	for _, w := range res.Warnings {
		logger.Warn("chat: "+w.Kind, "line", w.Line, "detail", w.Message)
	}

	switch {
	case streamErr != nil && !errors.Is(streamErr, context.Canceled):
		metrics.Inc(metrics.ChatFailed)
		logger.Error("chat: stream failed", "fragments", res.Fragments, "error", streamErr)
		return res, &StreamError{Err: streamErr, Received: res.Fragments}
	case ctx.Err() != nil:
		metrics.Inc(metrics.ChatFailed)
		logger.Info("chat: canceled", "fragments", res.Fragments)
		return res, ctx.Err()
	}

	logger.Info("chat: done", "fragments", res.Fragments, "lost", res.LostFragments, "demoted", res.Demoted, "cursor", res.Cursor.String())
	return res, nil
}
