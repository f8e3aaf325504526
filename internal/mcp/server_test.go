package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mdchat/internal/chat"
	"github.com/ajitpratap0/mdchat/internal/llm"
)

const doc = "# Chat\n## system\nbe brief\n## user\nhi\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMCPServer(mock *llm.MockCompleter) *Server {
	if mock == nil {
		return NewServer(nil, "", testLogger())
	}
	return NewServer(chat.NewRunner(mock, chat.Options{}, testLogger()), "m-default", testLogger())
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decode(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, textContent(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func TestMCP_Headings(t *testing.T) {
	srv := newMCPServer(nil)
	res, err := srv.HandleHeadings(context.Background(), makeReq("headings", map[string]any{"text": doc}))
	require.NoError(t, err)

	heads := decode(t, res)["headings"].([]any)
	require.Len(t, heads, 3)
	assert.Equal(t, "system", heads[1].(map[string]any)["text"])
	assert.InDelta(t, 2, heads[1].(map[string]any)["level"], 0)
}

func TestMCP_Headings_EmptyDocument(t *testing.T) {
	srv := newMCPServer(nil)
	res, err := srv.HandleHeadings(context.Background(), makeReq("headings", map[string]any{"text": ""}))
	require.NoError(t, err)
	assert.Empty(t, decode(t, res)["headings"])
}

func TestMCP_Turns(t *testing.T) {
	srv := newMCPServer(nil)
	res, err := srv.HandleTurns(context.Background(), makeReq("turns", map[string]any{"text": doc, "cursor_line": float64(4)}))
	require.NoError(t, err)

	turns := decode(t, res)["turns"].([]any)
	require.Len(t, turns, 2)
	assert.Equal(t, "system", turns[0].(map[string]any)["role"])
	assert.Equal(t, "be brief\n", turns[0].(map[string]any)["content"])
}

func TestMCP_Turns_Errors(t *testing.T) {
	srv := newMCPServer(nil)

	res, err := srv.HandleTurns(context.Background(), makeReq("turns", map[string]any{"text": doc}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = srv.HandleTurns(context.Background(), makeReq("turns", map[string]any{"text": "no chapter", "cursor_line": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textContent(t, res), "no preceding top-level heading")
}

func TestMCP_Chat(t *testing.T) {
	mock := llm.NewMockCompleter("Hello ", "there.")
	srv := newMCPServer(mock)
	res, err := srv.HandleChat(context.Background(), makeReq("chat", map[string]any{"text": doc, "cursor_line": 4}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Equal(t, doc+"\n## assistant\nHello there.", out["text"])
	assert.Equal(t, "Hello there.", out["reply"])
	assert.Equal(t, "m-default", mock.Calls()[0].Model)
}

func TestMCP_Chat_ModelOverride(t *testing.T) {
	mock := llm.NewMockCompleter("ok")
	srv := newMCPServer(mock)
	_, err := srv.HandleChat(context.Background(), makeReq("chat", map[string]any{"text": doc, "cursor_line": 4, "model": "other"}))
	require.NoError(t, err)
	assert.Equal(t, "other", mock.Calls()[0].Model)
}

func TestMCP_Chat_StreamFailure(t *testing.T) {
	mock := llm.NewMockCompleter("half")
	mock.StreamErr = errors.New("eof")
	srv := newMCPServer(mock)
	res, err := srv.HandleChat(context.Background(), makeReq("chat", map[string]any{"text": doc, "cursor_line": 4}))
	require.NoError(t, err)

	out := decode(t, res)
	assert.Contains(t, out["error"], "eof")
	assert.Equal(t, doc+"\n## assistant\nhalf", out["text"])
}

func TestMCP_Chat_Unavailable(t *testing.T) {
	srv := newMCPServer(nil)
	res, err := srv.HandleChat(context.Background(), makeReq("chat", map[string]any{"text": doc, "cursor_line": 4}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMCP_Chat_NoTurns(t *testing.T) {
	srv := newMCPServer(llm.NewMockCompleter("x"))
	res, err := srv.HandleChat(context.Background(), makeReq("chat", map[string]any{"text": "# C\nbody\n", "cursor_line": 1}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
