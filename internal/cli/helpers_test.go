package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/store"
)

const importFixture = `[
  {"kind": "note", "record": {"handle": "N1", "text": "Born at sea"}},
  {"kind": "person", "record": {"handle": "P1", "gender": 1, "notes": ["N1"],
    "primary_name": {"first": "Erik", "surnames": [{"surname": "Lind"}]}}},
  {"kind": "person", "record": {"handle": "P2", "gender": 0,
    "primary_name": {"first": "Eva", "surnames": [{"surname": "Berg"}]}}},
  {"kind": "family", "record": {"handle": "F1", "father": "P1", "mother": "P2"}}
]`

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// initTree creates an empty tree in a temp directory.
func initTree(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tree")
	_, err := execute(t, "init", dir)
	require.NoError(t, err)
	return dir
}

// importedTree creates a tree holding importFixture.
func importedTree(t *testing.T) string {
	t.Helper()
	dir := initTree(t)
	_, err := execute(t, "import", "--tree", dir, writeFile(t, "records.json", importFixture))
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decodeData unmarshals the data of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// wipeReferences empties the reference index of the tree in dir.
func wipeReferences(t *testing.T, dir string) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, dir, store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	_, err = st.DB().ExecContext(ctx, "DELETE FROM reference")
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
