package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-brain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [facts]",
		Short: "Store a memory item",
		Long: "Store a memory item in the local store. Facts can be a positional arg or piped via stdin.\n" +
			"An existing item with the same key and title is updated in place.",
		Run: runPut,
	}

	cmd.Flags().String("title", "", "Title (required)")
	cmd.Flags().StringP("type", "t", "note", "Type: decision, pattern, bugfix, architecture, convention, note")
	cmd.Flags().StringP("key", "k", "", "Schema key, e.g. root/security/jwt")
	cmd.Flags().Float64("confidence", store.DefaultConfidence, "Confidence (0-1)")
	cmd.Flags().Float64("importance", 0, "Importance (0-1, unset if omitted)")
	cmd.Flags().StringSliceP("files", "f", nil, "Related files")

	cmd.MarkFlagRequired("title")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	typ, _ := cmd.Flags().GetString("type")
	key, _ := cmd.Flags().GetString("key")
	files, _ := cmd.Flags().GetStringSlice("files")

	p := store.PutParams{Title: title, Type: typ, SchemaKey: key, Files: files}
	if cmd.Flags().Changed("confidence") {
		v, _ := cmd.Flags().GetFloat64("confidence")
		p.Confidence = &v
	}
	if cmd.Flags().Changed("importance") {
		v, _ := cmd.Flags().GetFloat64("importance")
		p.Importance = &v
	}

	facts, err := readInput(cmd, args)
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(facts) == "" {
		exitErr("put", fmt.Errorf("facts are required (positional arg or stdin)"))
	}
	p.Facts = facts

	s, err := openLocalStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	it, err := s.Put(cmd.Context(), p)
	if err != nil {
		exitErr("put", err)
	}

	b, _ := json.Marshal(it)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
