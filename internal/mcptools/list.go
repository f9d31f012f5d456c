package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/contextpack"
)

const defaultListLimit = 20

// ListTool handles the brain_list MCP tool.
type ListTool struct {
	provider brain.Provider
}

// NewListTool creates a ListTool.
func NewListTool(p brain.Provider) *ListTool {
	return &ListTool{provider: p}
}

// Definition returns the MCP tool definition for brain_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("brain_list",
		mcp.WithDescription("List the top-ranked project memory items."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max items (default: %d)", defaultListLimit)),
		),
	)
}

// Handle processes the brain_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := t.provider.ListItems(ctx, brain.ListOptions{Limit: intArg(req, "limit", defaultListLimit)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No memory items yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d memory items:\n\n", len(items))
	for _, it := range items {
		b.WriteString(contextpack.FormatItem(it))
	}
	return mcp.NewToolResultText(b.String()), nil
}
