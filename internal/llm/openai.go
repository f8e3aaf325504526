package llm

import (
	"context"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// DefaultOpenAIBaseURL is used when no base URL is configured.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAICompleter streams from any OpenAI-compatible chat completions
// endpoint.
type OpenAICompleter struct {
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAICompleter creates an OpenAICompleter. An empty baseURL selects
// DefaultOpenAIBaseURL.
func NewOpenAICompleter(apiKey, baseURL string, logger *slog.Logger, opts ...option.RequestOption) *OpenAICompleter {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}, opts...)
	c := openai.NewClient(reqOpts...)
	return &OpenAICompleter{client: &c, logger: logger}
}

// Stream implements Completer.
func (c *OpenAICompleter) Stream(ctx context.Context, model string, turns []models.Turn) (Stream, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		role := NormalizeRole(t.Role)
		if string(role) != t.Role {
			c.logger.Debug("llm: normalized turn role", "heading", t.Role, "role", role)
		}
		switch role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(t.Content))
		case RoleDeveloper:
			msgs = append(msgs, openai.DeveloperMessage(t.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	})
	// NewStreaming has already sent the request; a rejected one surfaces here.
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return newDeltaStream(stream, openAIDelta), nil
}

func openAIDelta(chunk openai.ChatCompletionChunk) string {
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}
