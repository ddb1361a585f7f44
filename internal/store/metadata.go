package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
)

// Metadata keys. Type registries use model.TypeSet.Key.
const (
	keyLocale        = "locale"
	keySurnames      = "surname_list"
	keyGenderStats   = "gender_stats"
	keyBookmarks     = "bookmarks"
	keyDefaultPerson = "default_person_handle"
	keyMediaPath     = "media_path"
	keyIDTemplate    = "id_template."
)

// GetMetadata decodes the value stored under key into v.
func (s *Store) GetMetadata(ctx context.Context, key string, v any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("get metadata", key, err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return false, &Error{Code: CodeStorage, Op: "get metadata", Key: key, Err: err}
	}
	return true, nil
}

// SetMetadata stores v under key, replacing any previous value.
func (s *Store) SetMetadata(ctx context.Context, key string, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return &Error{Code: CodeInvalidRecord, Op: "set metadata", Key: key, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, data)
	if err != nil {
		return storageError("set metadata", key, err)
	}
	return nil
}

// DefaultPersonHandle returns the handle of the home person, or "".
func (s *Store) DefaultPersonHandle(ctx context.Context) (string, error) {
	var handle string
	if _, err := s.GetMetadata(ctx, keyDefaultPerson, &handle); err != nil {
		return "", err
	}
	return handle, nil
}

// SetDefaultPersonHandle records the home person and emits
// home-person-changed.
func (s *Store) SetDefaultPersonHandle(ctx context.Context, handle string) error {
	if err := s.SetMetadata(ctx, keyDefaultPerson, handle); err != nil {
		return err
	}
	s.emit(Event{Kind: model.KindPerson, Action: ActionHomePerson, Handles: []string{handle}})
	return nil
}

// MediaPath returns the base directory relative media paths resolve
// against.
func (s *Store) MediaPath(ctx context.Context) (string, error) {
	var path string
	if _, err := s.GetMetadata(ctx, keyMediaPath, &path); err != nil {
		return "", err
	}
	return path, nil
}

// SetMediaPath records the media base directory.
func (s *Store) SetMediaPath(ctx context.Context, path string) error {
	return s.SetMetadata(ctx, keyMediaPath, path)
}

// Bookmarks returns the bookmarked handles of a kind.
func (s *Store) Bookmarks(kind model.Kind) []string {
	if !kind.Valid() {
		return []string{}
	}
	return append([]string{}, s.bookmarks[kind]...)
}

// SetBookmarks replaces the bookmarks of a kind. They are persisted at
// close.
func (s *Store) SetBookmarks(kind model.Kind, handles []string) {
	if kind.Valid() {
		s.bookmarks[kind] = append([]string{}, handles...)
	}
}

func (s *Store) loadBookmarks(ctx context.Context) error {
	stored := map[string][]string{}
	if _, err := s.GetMetadata(ctx, keyBookmarks, &stored); err != nil {
		return err
	}
	for _, k := range model.Kinds {
		s.bookmarks[k] = stored[k.Table()]
	}
	return nil
}

func (s *Store) saveBookmarks(ctx context.Context) error {
	stored := map[string][]string{}
	for _, k := range model.Kinds {
		if len(s.bookmarks[k]) > 0 {
			stored[k.Table()] = s.bookmarks[k]
		}
	}
	return s.SetMetadata(ctx, keyBookmarks, stored)
}

func (s *Store) storedIDTemplate(ctx context.Context, kind model.Kind) (string, error) {
	var pattern string
	if _, err := s.GetMetadata(ctx, keyIDTemplate+kind.Table(), &pattern); err != nil {
		return "", err
	}
	return pattern, nil
}

// IDTemplate returns the active human ID template of a kind, or "" for
// kinds without human IDs.
func (s *Store) IDTemplate(kind model.Kind) string {
	if !kind.HasHumanID() {
		return ""
	}
	return s.allocators[kind].Template().String()
}

// SetIDTemplate changes and persists the human ID template of a kind. A
// malformed pattern is replaced by the kind's default, as at open. The
// allocation cursor is kept.
func (s *Store) SetIDTemplate(ctx context.Context, kind model.Kind, pattern string) error {
	if !kind.HasHumanID() {
		return &Error{Code: CodeInvalidRecord, Op: "set id template " + kind.Table(), Key: pattern}
	}
	tmpl := s.parseTemplate(kind, pattern)
	if err := s.SetMetadata(ctx, keyIDTemplate+kind.Table(), tmpl.String()); err != nil {
		return err
	}
	s.allocators[kind].SetTemplate(tmpl)
	return nil
}

// NormalizeHumanID re-renders id in the kind's template width, so "I12"
// becomes "I0012" under "I%04d". IDs that do not fit are returned
// unchanged.
func (s *Store) NormalizeHumanID(kind model.Kind, id string) string {
	if !kind.HasHumanID() {
		return id
	}
	return s.allocators[kind].Template().Normalize(id)
}
