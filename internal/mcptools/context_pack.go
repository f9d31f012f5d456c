package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agent-brain/internal/contextpack"
	"github.com/rcliao/agent-brain/internal/model"
)

// ContextPackTool handles the brain_context_pack MCP tool.
type ContextPackTool struct {
	assembler     *contextpack.Assembler
	defaultBudget int
}

// NewContextPackTool creates a ContextPackTool. defaultBudget is used when
// the caller gives no positive token_budget.
func NewContextPackTool(a *contextpack.Assembler, defaultBudget int) *ContextPackTool {
	if defaultBudget <= 0 {
		defaultBudget = contextpack.DefaultTokenBudget
	}
	return &ContextPackTool{assembler: a, defaultBudget: defaultBudget}
}

// Definition returns the MCP tool definition for brain_context_pack.
func (t *ContextPackTool) Definition() mcp.Tool {
	return mcp.NewTool("brain_context_pack",
		mcp.WithDescription(
			"Assemble a token-budgeted markdown context pack of project memory for a task. "+
				"Call this at the start of a task to load relevant decisions, patterns and conventions.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("What you are about to work on, in natural language"),
		),
		mcp.WithString("scope",
			mcp.Description("full (whole brain), relevant (default: semantic search) or minimal (top items only)"),
		),
		mcp.WithNumber("token_budget",
			mcp.Description(fmt.Sprintf("Approximate token budget for the pack (default: %d)", t.defaultBudget)),
		),
	)
}

// Handle processes the brain_context_pack tool call.
func (t *ContextPackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	scope, err := model.ParseScope(req.GetString("scope", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	budget := intArg(req, "token_budget", t.defaultBudget)
	if budget <= 0 {
		budget = t.defaultBudget
	}

	doc := t.assembler.Assemble(ctx, contextpack.Request{
		Task:        task,
		Scope:       scope,
		TokenBudget: budget,
	})
	return mcp.NewToolResultText(doc.String()), nil
}
