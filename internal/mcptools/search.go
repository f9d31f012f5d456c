package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/contextpack"
)

// SearchTool handles the brain_search MCP tool.
type SearchTool struct {
	provider brain.Provider
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(p brain.Provider) *SearchTool {
	return &SearchTool{provider: p}
}

// Definition returns the MCP tool definition for brain_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("brain_search",
		mcp.WithDescription("Semantic search over project memory items."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, natural language or keywords"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max results (default: %d)", contextpack.SearchLimit)),
		),
		mcp.WithNumber("min_similarity",
			mcp.Description(fmt.Sprintf("Similarity threshold between 0 and 1 (default: %.1f)", contextpack.MinSimilarity)),
		),
	)
}

// Handle processes the brain_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	resp, err := t.provider.Search(ctx, query, brain.SearchOptions{
		Limit:         intArg(req, "limit", contextpack.SearchLimit),
		MinSimilarity: floatArg(req, "min_similarity", contextpack.MinSimilarity),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(resp.Results) == 0 {
		return mcp.NewToolResultText(
			fmt.Sprintf("No memory items matched (%d candidates scored).", resp.TotalCandidates)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d of %d candidates:\n\n", len(resp.Results), resp.TotalCandidates)
	for _, r := range resp.Results {
		b.WriteString(contextpack.FormatResult(r))
	}
	return mcp.NewToolResultText(b.String()), nil
}
