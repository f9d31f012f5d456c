package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	p, closeFn, err := openProvider()
	if err != nil {
		exitErr("open provider", err)
	}
	defer closeFn()

	s := server.New(p, cfg.DefaultBudget, logger)
	logger.Info("serving mcp over stdio", zap.String("backend", cfg.Backend))
	if err := server.Serve(s); err != nil {
		exitErr("serve", err)
	}
}
