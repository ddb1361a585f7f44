package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/lineage/internal/collation"
	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/idgen"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/registry"
	"github.com/roach88/lineage/internal/undolog"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Record tables, reference, metadata
const currentSchemaVersion = 1

// HandleGenerator produces new record handles.
type HandleGenerator interface {
	Generate() string
}

// UUIDGenerator generates time-ordered UUIDv7 handles.
type UUIDGenerator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store is a genealogy tree held in one directory: a SQLite database, the
// settings file and the undo log.
//
// A Store is driven by a single caller. It does no locking of its own.
type Store struct {
	dir      string
	settings config.Settings
	db       *sql.DB
	logger   *slog.Logger
	sink     EventSink
	handles  HandleGenerator
	collator *collation.Collator

	tables     [model.KindCount]*Table
	maps       [model.KindCount]*Map
	idMaps     [model.KindCount]*Map
	allocators [model.KindCount]*idgen.Allocator

	refs      *ReferenceIndex
	surnames  *registry.SurnameList
	gender    *registry.GenderStats
	types     *registry.TypeSets
	bookmarks [model.KindCount][]string

	journal *history.Journal
	closed  bool
}

type options struct {
	logger   *slog.Logger
	sink     EventSink
	handles  HandleGenerator
	settings *config.Settings
	undoLog  history.Log
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEventSink sets the receiver of change events.
func WithEventSink(sink EventSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithHandleGenerator replaces the UUIDv7 handle generator.
func WithHandleGenerator(g HandleGenerator) Option {
	return func(o *options) { o.handles = g }
}

// WithSettings uses s instead of reading settings.yaml.
func WithSettings(s config.Settings) Option {
	return func(o *options) { o.settings = &s }
}

// WithUndoLog backs the undo history with log instead of the bbolt file
// named in the settings.
func WithUndoLog(log history.Log) Option {
	return func(o *options) { o.undoLog = log }
}

// Open opens the tree in dir, creating it if needed.
//
// The database is configured with:
//   - WAL mode
//   - NORMAL synchronous mode
//   - the configured busy timeout
//   - a single pooled connection
//
// Registries are loaded from their metadata snapshots, or rebuilt from the
// record tables when a snapshot is missing. The undo history starts empty.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	o := options{
		logger:  slog.Default(),
		sink:    discardSink{},
		handles: UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	settings := config.Defaults()
	if o.settings != nil {
		settings = o.settings.WithDefaults()
	} else {
		loaded, err := config.Load(dir)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tree directory: %w", err)
	}

	collator, err := collation.New(settings.Locale)
	if err != nil {
		return nil, err
	}

	db, err := openDB(filepath.Join(dir, settings.Database), settings)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:      dir,
		settings: settings,
		db:       db,
		logger:   o.logger,
		sink:     o.sink,
		handles:  o.handles,
		collator: collator,
		surnames: registry.NewSurnameList(collator),
		gender:   registry.NewGenderStats(),
		types:    registry.NewTypeSets(),
	}
	for _, k := range model.Kinds {
		t := newTable(db, descriptors[k])
		s.tables[k] = t
		s.maps[k] = &Map{store: s, table: t}
		s.idMaps[k] = &Map{store: s, table: t, byID: true}
	}
	s.refs = newReferenceIndex(db, s.tables)

	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log := o.undoLog
	if log == nil {
		log, err = undolog.Open(filepath.Join(dir, settings.UndoLog), undolog.Options{})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	s.journal = history.NewJournal(log)

	s.logger.Info("store opened",
		"dir", dir,
		"database", settings.Database,
		"locale", collator.Locale(),
	)
	return s, nil
}

func openDB(path string, settings config.Settings) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps the store's
	// statements strictly ordered.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, settings); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

// init prepares ID allocators, registries and order keys.
func (s *Store) init(ctx context.Context) error {
	for _, k := range model.Kinds {
		if !k.HasHumanID() {
			continue
		}
		pattern, err := s.storedIDTemplate(ctx, k)
		if err != nil {
			return err
		}
		if pattern == "" {
			pattern = s.settings.IDTemplate(k.Table())
		}
		s.allocators[k] = idgen.NewAllocator(s.parseTemplate(k, pattern), s.idMaps[k])
	}

	if err := s.loadRegistries(ctx); err != nil {
		return err
	}
	if err := s.loadBookmarks(ctx); err != nil {
		return err
	}
	return s.checkLocale(ctx)
}

func (s *Store) parseTemplate(k model.Kind, pattern string) idgen.Template {
	tmpl, ok := idgen.Parse(pattern, descriptors[k].defaultPrefix)
	if !ok && pattern != "" {
		s.logger.Debug("id template replaced by default",
			"kind", k.String(),
			"pattern", pattern,
			"template", tmpl.String(),
		)
	}
	return tmpl
}

// checkLocale recomputes order keys when the tree was last written under a
// different collation locale.
func (s *Store) checkLocale(ctx context.Context) error {
	var stored string
	found, err := s.GetMetadata(ctx, keyLocale, &stored)
	if err != nil {
		return err
	}
	if found && stored == s.collator.Locale() {
		return nil
	}
	if found {
		s.logger.Info("collation locale changed", "from", stored, "to", s.collator.Locale())
		if err := s.RebuildOrderKeys(ctx); err != nil {
			return err
		}
	}
	return s.SetMetadata(ctx, keyLocale, s.collator.Locale())
}

// Close writes the registries and bookmarks to metadata and releases the
// undo log and the database. Calling Close twice is safe.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	ctx := context.Background()
	errs := []error{
		s.saveRegistries(ctx),
		s.saveBookmarks(ctx),
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	errs = append(errs, s.db.Close())
	s.logger.Info("store closed", "dir", s.dir)
	return errors.Join(errs...)
}

// Dir returns the tree directory.
func (s *Store) Dir() string {
	return s.dir
}

// Settings returns the settings the store was opened with.
func (s *Store) Settings() config.Settings {
	return s.settings
}

// DB returns the underlying database for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, settings config.Settings) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", settings.BusyTimeoutMS),
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. A database written by a newer version is refused.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d",
			version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
