package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/store"
)

// TreeOptions holds the flags shared by commands that operate on a tree.
type TreeOptions struct {
	*RootOptions
	Tree string
}

func (o *TreeOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Tree, "tree", "", "path to the tree directory (required)")
	_ = cmd.MarkFlagRequired("tree")
}

// logger writes to stderr so JSON output stays clean. Verbose mode logs
// store activity at debug level.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openTree opens an existing tree. Unlike store.Open it refuses to create a
// missing tree; use init for that.
func (o *TreeOptions) openTree(ctx context.Context, cmd *cobra.Command, f *OutputFormatter) (*store.Store, error) {
	if info, err := os.Stat(o.Tree); err != nil || !info.IsDir() {
		return nil, f.Fail(ExitCommandError, ErrCodeTreeNotFound, fmt.Sprintf("tree directory not found: %s", o.Tree), nil)
	}
	settings, err := config.Load(o.Tree)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid tree settings", err)
	}
	if _, err := os.Stat(filepath.Join(o.Tree, settings.Database)); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeTreeNotFound, fmt.Sprintf("no database in %s (run init first)", o.Tree), nil)
	}
	f.VerboseLog("Opening tree %s (database %s, locale %s)", o.Tree, settings.Database, settings.Locale)
	st, err := store.Open(ctx, o.Tree, store.WithLogger(o.logger(cmd)), store.WithSettings(settings))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to open tree", err)
	}
	return st, nil
}

func parseKindFlag(f *OutputFormatter, name string) (model.Kind, error) {
	kind, err := model.ParseKind(name)
	if err != nil {
		return 0, f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid --kind", err)
	}
	return kind, nil
}
