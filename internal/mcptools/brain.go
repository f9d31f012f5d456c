package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agent-brain/internal/brain"
)

// BrainTool handles the brain_get MCP tool.
type BrainTool struct {
	provider brain.Provider
}

// NewBrainTool creates a BrainTool.
func NewBrainTool(p brain.Provider) *BrainTool {
	return &BrainTool{provider: p}
}

// Definition returns the MCP tool definition for brain_get.
func (t *BrainTool) Definition() mcp.Tool {
	return mcp.NewTool("brain_get",
		mcp.WithDescription("Fetch the aggregated project brain document as markdown."),
		mcp.WithNumber("token_budget",
			mcp.Description("Requested size of the document in tokens (omit for no hint)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max items to include (omit for no limit)"),
		),
	)
}

// Handle processes the brain_get tool call.
func (t *BrainTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.provider.GetBrain(ctx, brain.BrainOptions{
		TokenBudget: intArg(req, "token_budget", 0),
		Limit:       intArg(req, "limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("brain fetch failed: %v", err)), nil
	}
	if doc.Document == "" {
		return mcp.NewToolResultText("The project brain is empty."), nil
	}
	return mcp.NewToolResultText(doc.Document), nil
}
