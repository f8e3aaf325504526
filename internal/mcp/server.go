// Package mcp implements the Model Context Protocol server for mdchat.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/mdchat/internal/chat"
	"github.com/ajitpratap0/mdchat/internal/editor"
	"github.com/ajitpratap0/mdchat/internal/heading"
	"github.com/ajitpratap0/mdchat/internal/models"
)

// Runner is the part of *chat.Runner the chat tool needs.
type Runner interface {
	Run(ctx context.Context, req chat.Request, buf editor.Buffer) (*chat.Result, error)
}

// Server wraps an MCPServer with mdchat dependencies.
type Server struct {
	mcp          *mcpserver.MCPServer
	runner       Runner
	defaultModel string
	logger       *slog.Logger
}

// NewServer creates a new MCP server. If runner is nil the chat tool returns
// an error response; headings and turns keep working.
func NewServer(runner Runner, defaultModel string, logger *slog.Logger) *Server {
	s := &Server{
		runner:       runner,
		defaultModel: defaultModel,
		logger:       logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"mdchat",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildHeadingsTool(), s.handleHeadings)
	mcpSrv.AddTool(buildTurnsTool(), s.handleTurns)
	mcpSrv.AddTool(buildChatTool(), s.handleChat)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleHeadings is the exported handler for the "headings" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleHeadings(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleHeadings(ctx, req)
}

// HandleTurns is the exported handler for the "turns" tool.
func (s *Server) HandleTurns(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleTurns(ctx, req)
}

// HandleChat is the exported handler for the "chat" tool.
func (s *Server) HandleChat(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleChat(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// --- tool definitions ---

func buildHeadingsTool() mcpgo.Tool {
	return mcpgo.NewTool("headings",
		mcpgo.WithDescription("List the ATX headings of a Markdown document with their levels and 0-based lines."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("The Markdown document"),
		),
	)
}

func buildTurnsTool() mcpgo.Tool {
	return mcpgo.NewTool("turns",
		mcpgo.WithDescription("Show the chapter around a line and the role-labeled turns it would send, without calling a model."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("The Markdown document"),
		),
		mcpgo.WithNumber("cursor_line",
			mcpgo.Required(),
			mcpgo.Description("0-based line inside the chapter"),
		),
	)
}

func buildChatTool() mcpgo.Tool {
	return mcpgo.NewTool("chat",
		mcpgo.WithDescription("Send the chapter around a line to the model and return the document with the reply written at the end of the chapter."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("The Markdown document"),
		),
		mcpgo.WithNumber("cursor_line",
			mcpgo.Required(),
			mcpgo.Description("0-based line inside the chapter"),
		),
		mcpgo.WithString("model",
			mcpgo.Description("Model name (default: llm.model from config)"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleHeadings(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text := req.GetString("text", "")
	heads := heading.Extract(text)
	if heads == nil {
		heads = []models.Heading{}
	}
	return toolResultJSON(map[string]any{"headings": heads})
}

func (s *Server) handleTurns(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	text := req.GetString("text", "")
	line := req.GetInt("cursor_line", -1)
	if line < 0 {
		return mcpgo.NewToolResultError("cursor_line is required and must be >= 0"), nil
	}
	conv, err := chat.Preview(text, line)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(conv)
}

// chatResult is returned by the chat tool.
type chatResult struct {
	*chat.Result
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleChat(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.runner == nil {
		return mcpgo.NewToolResultError("chat is unavailable: no completion endpoint configured"), nil
	}
	text := req.GetString("text", "")
	line := req.GetInt("cursor_line", -1)
	if line < 0 {
		return mcpgo.NewToolResultError("cursor_line is required and must be >= 0"), nil
	}
	model := req.GetString("model", s.defaultModel)
	if model == "" {
		return mcpgo.NewToolResultError("model is required"), nil
	}

	doc := editor.NewDocument(text)
	res, err := s.runner.Run(ctx, chat.Request{CursorLine: line, Model: model}, doc)
	if err != nil && res == nil {
		return mcpgo.NewToolResultErrorf("chat failed: %s", err.Error()), nil
	}
	if err != nil {
		var se *chat.StreamError
		if !errors.As(err, &se) {
			return mcpgo.NewToolResultErrorf("chat failed: %s", err.Error()), nil
		}
		s.logger.Warn("mcp chat: stream failed", "error", err)
		return toolResultJSON(chatResult{Result: res, Text: doc.Text(), Error: err.Error()})
	}
	return toolResultJSON(chatResult{Result: res, Text: doc.Text()})
}
