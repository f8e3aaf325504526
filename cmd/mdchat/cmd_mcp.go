package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/mdchat/internal/chat"
	mdmcp "github.com/ajitpratap0/mdchat/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  headings  list the headings of a document
  turns     show the conversation around a line without calling a model
  chat      send that conversation and return the document with the reply

If no API key or model is configured the server still starts; chat calls
return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			var runner mdmcp.Runner
			completer, err := newCompleter(cfg.LLM, logger, false)
			if err != nil {
				logger.Error("mcp: completion endpoint unavailable; chat tool calls will fail", "error", err)
			} else {
				runner = chat.NewRunner(completer, chatOptions(), logger)
			}

			srv := mdmcp.NewServer(runner, cfg.LLM.Model, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: mdchat MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
