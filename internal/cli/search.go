package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/contextpack"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic search over memory items",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", contextpack.SearchLimit, "Max results")
	cmd.Flags().Float64("min", contextpack.MinSimilarity, "Minimum similarity (0-1)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	minSim, _ := cmd.Flags().GetFloat64("min")
	query := strings.Join(args, " ")

	p, closeFn, err := openProvider()
	if err != nil {
		exitErr("open provider", err)
	}
	defer closeFn()

	resp, err := p.Search(cmd.Context(), query, brain.SearchOptions{Limit: limit, MinSimilarity: minSim})
	if err != nil {
		exitErr("search", err)
	}

	b, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
