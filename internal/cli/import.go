package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/store"
)

// ImportEntry is one record of an import file.
type ImportEntry struct {
	Kind   string          `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// ImportResult reports what an import added.
type ImportResult struct {
	File    string         `json:"file"`
	Added   int            `json:"added"`
	Counts  map[string]int `json:"counts"`
	Handles []string       `json:"handles,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add records from a JSON file",
		Long: `Add the records of a JSON file in one batch transaction.

The file is an array of {"kind": ..., "record": {...}} objects. Records
keep the handles and human IDs they carry; missing ones are generated.
The whole file is decoded before anything is written. A write failure
stops the import; records written so far are kept and derived state is
rebuilt. Batch imports cannot be undone.

Examples:
  lineage import --tree ./smith-family records.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runImport(opts *TreeOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	f := opts.formatter(cmd)

	records, err := readImportFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid import file", err)
	}
	f.VerboseLog("Decoded %d record(s) from %s", len(records), path)

	st, err := opts.openTree(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer st.Close()

	result := ImportResult{File: path, Counts: map[string]int{}}
	txn := st.Begin("Import "+filepath.Base(path), true)
	for i, r := range records {
		handle, err := st.Add(ctx, txn, r)
		if err != nil {
			abortErr := st.Abort(txn)
			if rebuildErr := rebuildDerived(ctx, st); rebuildErr != nil {
				abortErr = errors.Join(abortErr, rebuildErr)
			}
			return f.Fail(ExitFailure, ErrCodeImportFailed,
				fmt.Sprintf("import stopped at record %d after adding %d", i, result.Added),
				errors.Join(err, abortErr))
		}
		result.Added++
		result.Counts[r.Kind().Table()]++
		result.Handles = append(result.Handles, handle)
	}
	if err := st.CommitTransaction(ctx, txn); err != nil {
		return f.Fail(ExitFailure, ErrCodeImportFailed, "failed to commit import", err)
	}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Imported %d record(s) from %s\n", result.Added, path)
	for _, kind := range model.Kinds {
		if n := result.Counts[kind.Table()]; n > 0 {
			fmt.Fprintf(f.Writer, "  %-10s %d\n", kind.Table(), n)
		}
	}
	return nil
}

// readImportFile decodes every entry of an import file into its record.
func readImportFile(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []ImportEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	records := make([]model.Record, 0, len(entries))
	for i, e := range entries {
		kind, err := model.ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		r := model.New(kind)
		if len(e.Record) > 0 {
			if err := json.Unmarshal(e.Record, r); err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, kind.Table(), err)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// rebuildDerived restores the reference index and registries after an
// aborted batch left rows without them.
func rebuildDerived(ctx context.Context, st *store.Store) error {
	if err := st.References().RebuildAll(ctx); err != nil {
		return err
	}
	return st.RebuildRegistries(ctx)
}
