// Package llm streams chat completions for a list of role/content turns.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// Completer starts a streamed completion for turns.
type Completer interface {
	// Stream sends turns to model and returns the reply as a fragment stream.
	// Transport failures may surface either here or from Stream.Err.
	Stream(ctx context.Context, model string, turns []models.Turn) (Stream, error)
}

// Stream is a forward-only sequence of reply fragments. It cannot be
// restarted. Empty fragments are never produced.
//
//	for s.Next() {
//		frag := s.Current()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Role is a normalized chat role accepted by completion endpoints.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps free heading text to a Role. Known role names match
// case-insensitively; anything else is sent as a user turn.
func NormalizeRole(raw string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleSystem, RoleDeveloper, RoleUser, RoleAssistant:
		return r
	default:
		return RoleUser
	}
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options configures a Completer built by New.
type Options struct {
	Provider  string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// New returns the Completer for opts.Provider.
func New(opts Options, logger *slog.Logger) (Completer, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(opts.APIKey, opts.BaseURL, logger), nil
	case ProviderAnthropic:
		return NewAnthropicCompleter(opts.APIKey, opts.BaseURL, opts.MaxTokens, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// sdkStream is the iterator shape shared by the SDK ssestream types.
type sdkStream[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// deltaStream adapts an SDK event stream into a fragment Stream, dropping
// events that carry no text.
type deltaStream[T any] struct {
	src   sdkStream[T]
	delta func(T) string
	cur   string
}

func newDeltaStream[T any](src sdkStream[T], delta func(T) string) *deltaStream[T] {
	return &deltaStream[T]{src: src, delta: delta}
}

func (d *deltaStream[T]) Next() bool {
	for d.src.Next() {
		if text := d.delta(d.src.Current()); text != "" {
			d.cur = text
			return true
		}
	}
	return false
}

func (d *deltaStream[T]) Current() string { return d.cur }

func (d *deltaStream[T]) Err() error { return d.src.Err() }

func (d *deltaStream[T]) Close() error { return d.src.Close() }
