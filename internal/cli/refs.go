package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/model"
)

// RefsOptions holds flags for the refs command.
type RefsOptions struct {
	TreeOptions
	Kinds   []string
	Forward bool
}

// RefEntry is one record in a refs listing.
type RefEntry struct {
	Kind   string `json:"kind"`
	Handle string `json:"handle"`
}

// RefsResult lists the records related to a handle.
type RefsResult struct {
	Handle    string     `json:"handle"`
	Direction string     `json:"direction"` // "referrers" or "references"
	Refs      []RefEntry `json:"refs"`
}

// NewRefsCommand creates the refs command.
func NewRefsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefsOptions{TreeOptions: TreeOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "refs <handle>",
		Short: "List records referencing a handle",
		Long: `List the records whose reference lists contain handle, using the
reference index. With --forward, list the records handle itself refers to.

Examples:
  lineage refs --tree ./smith-family 0191f1c2-...
  lineage refs --tree ./smith-family 0191f1c2-... --kind family --kind event
  lineage refs --tree ./smith-family 0191f1c2-... --forward`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only list records of these kinds (repeatable)")
	cmd.Flags().BoolVar(&opts.Forward, "forward", false, "list the records handle refers to instead")

	return cmd
}

func runRefs(opts *RefsOptions, handle string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	kinds := make([]model.Kind, 0, len(opts.Kinds))
	for _, name := range opts.Kinds {
		kind, err := parseKindFlag(f, name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	result := RefsResult{Handle: handle, Direction: "referrers", Refs: []RefEntry{}}
	var refs []model.Ref
	if opts.Forward {
		result.Direction = "references"
		refs, err = st.References().FindReferences(ctx, handle)
		refs = filterKinds(refs, kinds)
	} else {
		refs, err = st.FindReferrers(ctx, handle, kinds...)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to query references", err)
	}
	for _, r := range refs {
		result.Refs = append(result.Refs, RefEntry{Kind: r.Kind.Table(), Handle: r.Handle})
	}

	if f.JSON() {
		return f.Success(result)
	}
	if len(result.Refs) == 0 {
		fmt.Fprintf(f.Writer, "No %s for %s\n", result.Direction, handle)
		return nil
	}
	for _, r := range result.Refs {
		fmt.Fprintf(f.Writer, "%-10s %s\n", r.Kind, r.Handle)
	}
	return nil
}

func filterKinds(refs []model.Ref, kinds []model.Kind) []model.Ref {
	if len(kinds) == 0 {
		return refs
	}
	var out []model.Ref
	for _, r := range refs {
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
