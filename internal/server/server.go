// Package server wires the MCP tools to a memory provider and creates the
// server instance. No business logic lives here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/contextpack"
	"github.com/rcliao/agent-brain/internal/mcptools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all brain tools registered.
// defaultBudget is the context pack budget used when a caller omits one.
func New(p brain.Provider, defaultBudget int, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}

	s := server.NewMCPServer(
		"agent-brain",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	assembler := contextpack.NewAssembler(p, contextpack.WithLogger(log.Named("contextpack")))

	contextPackTool := mcptools.NewContextPackTool(assembler, defaultBudget)
	s.AddTool(contextPackTool.Definition(), contextPackTool.Handle)

	searchTool := mcptools.NewSearchTool(p)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	brainTool := mcptools.NewBrainTool(p)
	s.AddTool(brainTool.Definition(), brainTool.Handle)

	listTool := mcptools.NewListTool(p)
	s.AddTool(listTool.Definition(), listTool.Handle)

	log.Debug("mcp server ready", zap.String("version", Version))
	return s
}

// Serve runs s over stdio until stdin closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func serverInstructions() string {
	return `agent-brain gives you persistent project memory: decisions, patterns,
conventions and bug fixes recorded in earlier sessions.

At the start of a task call brain_context_pack with a short description of
the task. It returns a markdown pack sized to your token budget. Use
brain_search for targeted lookups, brain_get for the whole brain and
brain_list for the top items.`
}
