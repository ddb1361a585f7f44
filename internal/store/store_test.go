package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/testutil"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")
	s := openTestStore(t, dir)

	if _, err := os.Stat(filepath.Join(dir, "sqlite.db")); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	assert.Equal(t, dir, s.Dir())
	assert.Equal(t, "en", s.Settings().Locale)
}

func TestOpen_CreatesUndoLogFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "undo.db"))
	assert.NoError(t, err)
}

func TestOpen_ReadsSettingsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(dir, config.Settings{
		Database:      "tree.sqlite",
		BusyTimeoutMS: 1500,
		IDTemplates:   map[string]string{"person": "P-%05d"},
	}))

	s := openTestStore(t, dir)

	_, err := os.Stat(filepath.Join(dir, "tree.sqlite"))
	assert.NoError(t, err)
	assert.NoError(t, s.verifyPragma("busy_timeout", "1500"))
	assert.Equal(t, "P-%05d", s.IDTemplate(model.KindPerson))
}

func TestOpen_InvalidSettingsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("busy_timeout_ms: -4\n"), 0o644))

	_, err := Open(context.Background(), dir)
	assert.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		s, err := Open(context.Background(), dir)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s := openTestStore(t, dir)
	for _, k := range model.Kinds {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", k.Table(),
		).Scan(&name)
		assert.NoError(t, err, "table %q missing after repeated opens", k.Table())
	}
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "sqlite.db"))
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestClose_MultipleCalls(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.want))
		})
	}
}

func TestSchema_PersonColumns(t *testing.T) {
	s := createTestStore(t)

	rows, err := s.DB().Query("PRAGMA table_info(person)")
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"handle", "human_id", "order_by", "given_name", "surname", "gender", "payload"}, cols)
}

func TestReopen_PersistsRecordsAndRegistries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1 := openTestStore(t, dir)
	h := addOne(t, s1, testutil.Person("Ann", "Smith", model.GenderFemale))
	addOne(t, s1, &model.Event{Type: model.CustomType("Ordination")})
	s1.SetBookmarks(model.KindPerson, []string{h})
	require.NoError(t, s1.Close())

	s2 := openTestStore(t, dir, WithHandleGenerator(testutil.NewSequentialHandles("R")))
	p := getPerson(t, s2, h)
	assert.Equal(t, "I0001", p.ID)
	assert.Equal(t, []string{"Smith"}, s2.Surnames())
	c, ok := s2.GenderStats().Get("Ann")
	require.True(t, ok)
	assert.Equal(t, 1, c.Female)
	assert.Equal(t, []string{"Ordination"}, s2.CustomTypes(model.EventNames))
	assert.Equal(t, []string{h}, s2.Bookmarks(model.KindPerson))

	id, err := s2.NextID(ctx, model.KindPerson)
	require.NoError(t, err)
	assert.Equal(t, "I0002", id)

	// The undo history does not survive a reopen.
	assert.False(t, s2.History().CanUndo())
}

func TestReopen_RebuildsMissingRegistrySnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1 := openTestStore(t, dir)
	addOne(t, s1, testutil.Person("Ann", "Smith", model.GenderFemale))
	require.NoError(t, s1.Close())

	db, err := sql.Open("sqlite3", filepath.Join(dir, "sqlite.db"))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", keySurnames)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s2 := openTestStore(t, dir, WithHandleGenerator(testutil.NewSequentialHandles("R")))
	assert.Equal(t, []string{"Smith"}, s2.Surnames())
}

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
