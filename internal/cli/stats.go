package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/model"
)

// StatsResult summarizes a tree.
type StatsResult struct {
	Tree          string         `json:"tree"`
	Counts        map[string]int `json:"counts"`
	Total         int            `json:"total"`
	References    int            `json:"references"`
	Surnames      []string       `json:"surnames"`
	DefaultPerson string         `json:"default_person,omitempty"`
	CanUndo       bool           `json:"can_undo"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a tree",
		Long: `Show record counts per kind, the reference count, the surname list
and the default person of a tree.

Examples:
  lineage stats --tree ./smith-family
  lineage stats --tree ./smith-family --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runStats(opts *TreeOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Summary(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to count records", err)
	}
	refs, err := st.References().Count(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to count references", err)
	}
	home, err := st.DefaultPersonHandle(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read default person", err)
	}

	result := StatsResult{
		Tree:          opts.Tree,
		Counts:        make(map[string]int, len(summary)),
		References:    refs,
		Surnames:      st.Surnames(),
		DefaultPerson: home,
		CanUndo:       st.History().CanUndo(),
	}
	if result.Surnames == nil {
		result.Surnames = []string{}
	}
	for kind, n := range summary {
		result.Counts[kind.Table()] = n
		result.Total += n
	}

	if f.JSON() {
		return f.Success(result)
	}
	return outputStatsText(f, result)
}

func outputStatsText(f *OutputFormatter, result StatsResult) error {
	w := f.Writer
	fmt.Fprintf(w, "Tree: %s\n", result.Tree)
	for _, kind := range model.Kinds {
		fmt.Fprintf(w, "  %-10s %d\n", kind.Table(), result.Counts[kind.Table()])
	}
	fmt.Fprintf(w, "Total records: %d\n", result.Total)
	fmt.Fprintf(w, "References: %d\n", result.References)
	if len(result.Surnames) > 0 {
		fmt.Fprintf(w, "Surnames: %s\n", strings.Join(result.Surnames, ", "))
	} else {
		fmt.Fprintln(w, "Surnames: (none)")
	}
	if result.DefaultPerson != "" {
		fmt.Fprintf(w, "Default person: %s\n", result.DefaultPerson)
	}
	return nil
}
