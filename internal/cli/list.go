package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/model"
	"github.com/rcliao/agent-brain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memory items",
		Long: "List the top-ranked memory items. Filtering by --type or --prefix lists\n" +
			"newest first and needs the local backend.",
		Run: runList,
	}

	cmd.Flags().StringP("type", "t", "", "Filter by type (local only)")
	cmd.Flags().StringP("prefix", "p", "", "Filter by schema key prefix (local only)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("titles-only", false, "Only output schema key and title")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	prefix, _ := cmd.Flags().GetString("prefix")
	limit, _ := cmd.Flags().GetInt("limit")
	titlesOnly, _ := cmd.Flags().GetBool("titles-only")

	var items []model.MemoryItem
	if typ != "" || prefix != "" {
		s, err := openLocalStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()

		items, err = s.List(cmd.Context(), store.ListParams{Type: typ, SchemaPrefix: prefix, Limit: limit})
		if err != nil {
			exitErr("list", err)
		}
	} else {
		p, closeFn, err := openProvider()
		if err != nil {
			exitErr("open provider", err)
		}
		defer closeFn()

		items, err = p.ListItems(cmd.Context(), brain.ListOptions{Limit: limit})
		if err != nil {
			exitErr("list", err)
		}
	}

	if titlesOnly {
		for _, it := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", it.SchemaKey, it.Title)
		}
		return
	}

	if items == nil {
		items = []model.MemoryItem{}
	}
	b, _ := json.MarshalIndent(items, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
