package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/server"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agent-brain %s\n", server.Version)
		},
	})
}
