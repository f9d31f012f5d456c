package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/brain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "brain",
		Short: "Print the project brain document",
		Run:   runBrain,
	}

	cmd.Flags().IntP("budget", "b", 0, "Requested token budget (0 = no hint)")
	cmd.Flags().IntP("limit", "l", 0, "Max items (0 = no limit)")
	cmd.Flags().Bool("json", false, "Output the full response as JSON")
	cmd.Flags().Bool("render", false, "Render markdown for the terminal")

	RootCmd.AddCommand(cmd)
}

func runBrain(cmd *cobra.Command, args []string) {
	budget, _ := cmd.Flags().GetInt("budget")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	render, _ := cmd.Flags().GetBool("render")

	p, closeFn, err := openProvider()
	if err != nil {
		exitErr("open provider", err)
	}
	defer closeFn()

	doc, err := p.GetBrain(cmd.Context(), brain.BrainOptions{TokenBudget: budget, Limit: limit})
	if err != nil {
		exitErr("brain", err)
	}

	if asJSON {
		b, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return
	}

	out := doc.Document
	if render {
		out, err = renderMarkdown(out)
		if err != nil {
			exitErr("render", err)
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}
