package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Locale string
}

// InitResult describes a newly created tree.
type InitResult struct {
	Tree     string `json:"tree"`
	Database string `json:"database"`
	UndoLog  string `json:"undo_log"`
	Locale   string `json:"locale"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create an empty tree",
		Long: `Create an empty tree in dir with default settings.

Writes settings.yaml and creates the record database. Fails if dir already
holds a settings file.

Examples:
  lineage init ./smith-family
  lineage init ./lindqvist --locale sv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Locale, "locale", "en", "collation locale for sorted listings")

	return cmd
}

func runInit(opts *InitOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return f.Fail(ExitCommandError, ErrCodeExists, fmt.Sprintf("tree already initialized: %s", dir), nil)
	}

	settings := config.Defaults()
	settings.Locale = opts.Locale
	if err := config.Save(dir, settings); err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid settings", err)
	}

	st, err := store.Open(context.Background(), dir, store.WithLogger(opts.logger(cmd)))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create tree", err)
	}
	if err := st.Close(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create tree", err)
	}

	result := InitResult{
		Tree:     dir,
		Database: settings.Database,
		UndoLog:  settings.UndoLog,
		Locale:   settings.Locale,
	}
	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Initialized tree in %s (locale %s)\n", dir, settings.Locale)
	return nil
}
