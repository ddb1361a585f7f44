package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NextIDOptions holds flags for the next-id command.
type NextIDOptions struct {
	TreeOptions
	Kind string
}

// NewNextIDCommand creates the next-id command.
func NewNextIDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextIDOptions{TreeOptions: TreeOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Show the next free human ID",
		Long: `Print the human ID the next added record of a kind would receive.

Examples:
  lineage next-id --tree ./smith-family --kind person`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNextID(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "record kind (required)")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runNextID(opts *NextIDOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	kind, err := parseKindFlag(f, opts.Kind)
	if err != nil {
		return err
	}
	if !kind.HasHumanID() {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("%s records have no human IDs", kind.Table()), nil)
	}

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.NextID(ctx, kind)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to allocate ID", err)
	}

	if f.JSON() {
		return f.Success(map[string]string{"kind": kind.Table(), "id": id})
	}
	fmt.Fprintln(f.Writer, id)
	return nil
}
