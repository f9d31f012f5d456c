package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "brief [summary]",
		Short: "Show or set the project brief",
		Long: "Show or set the project brief, the short summary placed at the top of relevant-scope\n" +
			"context packs. With no argument and no piped input the current brief is printed.",
		Run: runBrief,
	}

	RootCmd.AddCommand(cmd)
}

func runBrief(cmd *cobra.Command, args []string) {
	summary, err := readInput(cmd, args)
	if err != nil {
		exitErr("read stdin", err)
	}

	s, err := openLocalStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if strings.TrimSpace(summary) == "" {
		current, err := s.Summary(cmd.Context())
		if err != nil {
			exitErr("brief", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), current)
		return
	}

	if err := s.SetSummary(cmd.Context(), summary); err != nil {
		exitErr("brief", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true}`)
}
