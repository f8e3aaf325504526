package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// defaultAnthropicMaxTokens caps the reply when no limit is configured.
const defaultAnthropicMaxTokens = 4096

// AnthropicCompleter streams replies from the Anthropic Messages API.
// System and developer turns are folded into the system prompt.
type AnthropicCompleter struct {
	client    *anthropic.Client
	maxTokens int
	logger    *slog.Logger
}

// NewAnthropicCompleter creates an AnthropicCompleter. An empty baseURL keeps
// the SDK default endpoint.
func NewAnthropicCompleter(apiKey, baseURL string, maxTokens int, logger *slog.Logger, opts ...option.RequestOption) *AnthropicCompleter {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	c := anthropic.NewClient(reqOpts...)
	return &AnthropicCompleter{client: &c, maxTokens: maxTokens, logger: logger}
}

// Stream implements Completer.
func (c *AnthropicCompleter) Stream(ctx context.Context, model string, turns []models.Turn) (Stream, error) {
	var system []string
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch NormalizeRole(t.Role) {
		case RoleSystem, RoleDeveloper:
			system = append(system, t.Content)
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(c.maxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	c.logger.Debug("llm: anthropic stream", "model", model, "messages", len(msgs), "system_turns", len(system))
	stream := c.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return newDeltaStream(stream, anthropicDelta), nil
}

func anthropicDelta(ev anthropic.MessageStreamEventUnion) string {
	switch e := ev.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		if d, ok := e.Delta.AsAny().(anthropic.TextDelta); ok {
			return d.Text
		}
	}
	return ""
}
