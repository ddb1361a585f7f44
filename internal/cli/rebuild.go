package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// RebuildResult reports the derived state after a rebuild.
type RebuildResult struct {
	References int `json:"references"`
	Surnames   int `json:"surnames"`
}

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild derived state",
		Long: `Recompute everything derived from the record tables: the reference
index, the surname and gender registries, the custom type sets and the
sort keys.

Examples:
  lineage rebuild --tree ./smith-family`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebuild(opts, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runRebuild(opts *TreeOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	f.VerboseLog("Rebuilding reference index")
	if err := st.References().RebuildAll(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to rebuild references", err)
	}
	f.VerboseLog("Rebuilding registries")
	if err := st.RebuildRegistries(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to rebuild registries", err)
	}
	f.VerboseLog("Rebuilding sort keys")
	if err := st.RebuildOrderKeys(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to rebuild sort keys", err)
	}

	refs, err := st.References().Count(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to count references", err)
	}
	result := RebuildResult{References: refs, Surnames: len(st.Surnames())}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Rebuilt %d references, %d surnames\n", result.References, result.Surnames)
	return nil
}
