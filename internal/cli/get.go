package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	TreeOptions
	Kind   string
	Handle string
	ID     string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{TreeOptions: TreeOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print one record",
		Long: `Print a record as canonical JSON, looked up by handle or human ID.

Exit codes:
  0 - Record found
  1 - No such record
  2 - Command error (missing tree, bad kind, etc.)

Examples:
  lineage get --tree ./smith-family --kind person --id I0001
  lineage get --tree ./smith-family --kind note --handle 0191f1c2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "record kind, e.g. person or family (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&opts.Handle, "handle", "", "record handle")
	cmd.Flags().StringVar(&opts.ID, "id", "", "record human ID")
	cmd.MarkFlagsOneRequired("handle", "id")
	cmd.MarkFlagsMutuallyExclusive("handle", "id")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	kind, err := parseKindFlag(f, opts.Kind)
	if err != nil {
		return err
	}

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		r     model.Record
		found bool
		key   = opts.Handle
	)
	if opts.ID != "" {
		key = st.NormalizeHumanID(kind, opts.ID)
		f.VerboseLog("Looking up %s by human ID %s", kind.Table(), key)
		r, found, err = st.GetByHumanID(ctx, kind, key)
	} else {
		r, found, err = st.Get(ctx, kind, key)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to read %s", kind.Table()), err)
	}
	if !found {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no %s %s", kind.Table(), key), nil)
	}

	if f.JSON() {
		return f.Success(r)
	}
	data, err := codec.MarshalCanonical(r)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to render record", err)
	}
	fmt.Fprintln(f.Writer, string(data))
	return nil
}
