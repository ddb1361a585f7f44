// Package config loads the per-tree settings file.
//
// A tree directory may hold a settings.yaml naming the database and undo log
// files, the collation locale, the SQLite busy timeout and per-kind human ID
// templates. Every field is optional. Values are checked against an embedded
// CUE schema before use.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in a tree directory.
const FileName = "settings.yaml"

//go:embed settings.cue
var schemaSource string

// Settings configures one tree.
type Settings struct {
	Database      string            `yaml:"database,omitempty" json:"database,omitempty"`
	UndoLog       string            `yaml:"undo_log,omitempty" json:"undo_log,omitempty"`
	Locale        string            `yaml:"locale,omitempty" json:"locale,omitempty"`
	BusyTimeoutMS int               `yaml:"busy_timeout_ms,omitempty" json:"busy_timeout_ms,omitempty"`
	IDTemplates   map[string]string `yaml:"id_templates,omitempty" json:"id_templates,omitempty"`
}

// Defaults returns the settings used for a tree with no settings file.
func Defaults() Settings {
	return Settings{
		Database:      "sqlite.db",
		UndoLog:       "undo.db",
		Locale:        "en",
		BusyTimeoutMS: 5000,
	}
}

// BusyTimeout returns the SQLite busy timeout as a duration.
func (s Settings) BusyTimeout() time.Duration {
	return time.Duration(s.BusyTimeoutMS) * time.Millisecond
}

// IDTemplate returns the configured template for a table name, or "".
func (s Settings) IDTemplate(table string) string {
	return s.IDTemplates[table]
}

// WithDefaults fills unset fields from Defaults.
func (s Settings) WithDefaults() Settings {
	d := Defaults()
	if s.Database == "" {
		s.Database = d.Database
	}
	if s.UndoLog == "" {
		s.UndoLog = d.UndoLog
	}
	if s.Locale == "" {
		s.Locale = d.Locale
	}
	if s.BusyTimeoutMS == 0 {
		s.BusyTimeoutMS = d.BusyTimeoutMS
	}
	return s
}

// Error reports an invalid settings file.
type Error struct {
	File    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, " (%s:%d:%d)", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Path != "" {
		b.WriteString(": " + e.Path)
	}
	b.WriteString(": " + e.Message)
	return b.String()
}

// Load reads settings.yaml from dir. A missing file yields Defaults.
func Load(dir string) (Settings, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes and validates settings. name is used in error messages.
func Parse(name string, data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, &Error{File: name, Message: err.Error()}
	}
	if err := Validate(s); err != nil {
		var cfgErr *Error
		if errors.As(err, &cfgErr) {
			cfgErr.File = name
		}
		return Settings{}, err
	}
	return s.WithDefaults(), nil
}

// Validate checks s against the settings schema.
func Validate(s Settings) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("settings.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile settings schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Settings"))
	v := def.Unify(ctx.Encode(s))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return convertCUEError(err)
	}
	return nil
}

func convertCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	cfgErr := &Error{
		Path:    strings.Join(first.Path(), "."),
		Message: first.Error(),
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}

// Save writes s to settings.yaml in dir, creating dir if needed.
func Save(dir string, s Settings) error {
	if err := Validate(s); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tree directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
