// Package cli implements the agent-brain CLI commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/config"
	"github.com/rcliao/agent-brain/internal/embedding"
	"github.com/rcliao/agent-brain/internal/logging"
	"github.com/rcliao/agent-brain/internal/store"
)

var (
	configPath  string
	backendFlag string
	dbPath      string
	verbose     bool

	cfg    = &config.Config{}
	logger = zap.NewNop()
)

var errRemoteBackend = errors.New("this command needs the local backend (use --backend local)")

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-brain",
	Short: "Project memory for coding agents",
	Long: "Persistent project memory for coding agents. Assembles token-budgeted context packs " +
		"from a remote brain service or a local SQLite store, on the command line or over MCP.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $AGENT_BRAIN_CONFIG or ~/.agent-brain/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Memory backend: remote or local")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Local database path (default: $AGENT_BRAIN_DB or ~/.agent-brain/brain.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backendFlag != "" {
		loaded.Backend = backendFlag
	}
	if dbPath != "" {
		loaded.DBPath = dbPath
	}
	cfg = loaded

	l, err := logging.New(verbose)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded", zap.String("backend", cfg.Backend), zap.String("db", cfg.DBPath))
	return nil
}

// openProvider returns the configured memory provider and a function that
// releases it.
func openProvider() (brain.Provider, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.Backend == config.BackendLocal {
		s, err := openLocalStore()
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	c := brain.NewClient(cfg.URL, cfg.APIKey, cfg.Timeout, brain.WithLogger(logger.Named("brain")))
	return c, func() {}, nil
}

// openLocalStore opens the SQLite store. Commands that edit memory only
// work against the local backend.
func openLocalStore() (*store.SQLiteStore, error) {
	if cfg.Backend != config.BackendLocal {
		return nil, errRemoteBackend
	}
	opts := []store.Option{store.WithLogger(logger.Named("store"))}
	e, err := embedding.New(cfg.Embedding, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if e != nil {
		opts = append(opts, store.WithEmbedder(e))
	}
	return store.NewSQLiteStore(cfg.DBPath, opts...)
}

// readInput returns args joined by spaces, or stdin when no args are given
// and stdin is not a terminal.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func exitErr(msg string, err error) {
	logger.Debug(msg, zap.Error(err))
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
