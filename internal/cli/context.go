package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/contextpack"
	"github.com/rcliao/agent-brain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [task]",
		Short: "Assemble a context pack for a task",
		Long: "Assemble a token-budgeted markdown context pack for a task.\n\n" +
			"Scopes: full (the whole brain), relevant (brief plus semantic search, the default)\n" +
			"and minimal (the top few items).",
		Args: cobra.MinimumNArgs(1),
		Run:  runContext,
	}

	cmd.Flags().StringP("scope", "s", "relevant", "Scope: full, relevant, minimal")
	cmd.Flags().IntP("budget", "b", 0, "Token budget (default: config default_budget, 4000)")
	cmd.Flags().Bool("render", false, "Render markdown for the terminal")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	scopeStr, _ := cmd.Flags().GetString("scope")
	budget, _ := cmd.Flags().GetInt("budget")
	render, _ := cmd.Flags().GetBool("render")
	task := strings.Join(args, " ")

	scope, err := model.ParseScope(scopeStr)
	if err != nil {
		exitErr("context", err)
	}
	if budget <= 0 {
		budget = cfg.DefaultBudget
	}

	p, closeFn, err := openProvider()
	if err != nil {
		exitErr("open provider", err)
	}
	defer closeFn()

	assembler := contextpack.NewAssembler(p, contextpack.WithLogger(logger.Named("contextpack")))
	doc := assembler.Assemble(cmd.Context(), contextpack.Request{
		Task:        task,
		Scope:       scope,
		TokenBudget: budget,
	})

	out := doc.String()
	if render {
		out, err = renderMarkdown(out)
		if err != nil {
			exitErr("render", err)
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
