package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/registry"
)

// indexRegistries moves the registries from old to r. Either may be nil for
// an insert or a delete.
func (s *Store) indexRegistries(ctx context.Context, old, r model.Record) error {
	if r != nil {
		s.types.Add(model.CustomTypes(r)...)
	}

	oldPerson, _ := old.(*model.Person)
	newPerson, _ := r.(*model.Person)
	if oldPerson == nil && newPerson == nil {
		return nil
	}

	switch {
	case oldPerson == nil:
		s.gender.Count(newPerson.GivenName(), newPerson.Gender)
	case newPerson == nil:
		s.gender.Uncount(oldPerson.GivenName(), oldPerson.Gender)
	case oldPerson.GivenName() != newPerson.GivenName() || oldPerson.Gender != newPerson.Gender:
		s.gender.Uncount(oldPerson.GivenName(), oldPerson.Gender)
		s.gender.Count(newPerson.GivenName(), newPerson.Gender)
	}

	if newPerson != nil {
		s.surnames.Add(newPerson.PrimarySurname())
	}
	if oldPerson != nil {
		surname := oldPerson.PrimarySurname()
		if newPerson != nil && newPerson.PrimarySurname() == surname {
			return nil
		}
		n, err := s.countSurname(ctx, surname)
		if err != nil {
			return err
		}
		if n == 0 {
			s.surnames.Remove(surname)
		}
	}
	return nil
}

// countSurname returns how many stored people have surname as their primary
// surname.
func (s *Store) countSurname(ctx context.Context, surname string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM person WHERE surname = ?", surname).Scan(&n)
	if err != nil {
		return 0, storageError("count person surname", surname, err)
	}
	return n, nil
}

// RebuildRegistries recomputes the surname list, gender statistics and
// custom type sets from the record tables.
func (s *Store) RebuildRegistries(ctx context.Context) error {
	surnames := []string{}
	stats := registry.NewGenderStats()
	s.types.Clear()

	for _, t := range s.tables {
		kind := t.Kind()
		err := t.Scan(ctx, false, func(handle string, payload []byte) error {
			r, err := codec.DecodeRecord(kind, payload)
			if err != nil {
				return fmt.Errorf("rebuild registries: %s %s: %w", kind, handle, err)
			}
			s.types.Add(model.CustomTypes(r)...)
			if p, ok := r.(*model.Person); ok {
				surnames = append(surnames, p.PrimarySurname())
				stats.Count(p.GivenName(), p.Gender)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.surnames.Reset(surnames)
	s.gender.Reset(stats.Snapshot())
	s.logger.Info("registries rebuilt",
		"surnames", s.surnames.Len(),
		"given_names", len(stats.Names()),
	)
	return nil
}

// loadRegistries reads the registry snapshots. If any is missing the
// registries are rebuilt from the tables instead.
func (s *Store) loadRegistries(ctx context.Context) error {
	var surnames []string
	found, err := s.GetMetadata(ctx, keySurnames, &surnames)
	if err != nil {
		return err
	}
	complete := found

	gender := map[string]registry.GenderCount{}
	if found, err = s.GetMetadata(ctx, keyGenderStats, &gender); err != nil {
		return err
	}
	complete = complete && found

	typeNames := make(map[model.TypeSet][]string, model.TypeSetCount)
	for _, set := range model.TypeSets {
		var names []string
		if found, err = s.GetMetadata(ctx, set.Key(), &names); err != nil {
			return err
		}
		complete = complete && found
		typeNames[set] = names
	}

	if !complete {
		return s.RebuildRegistries(ctx)
	}
	s.surnames.Reset(surnames)
	s.gender.Reset(gender)
	for set, names := range typeNames {
		s.types.Reset(set, names)
	}
	return nil
}

// saveRegistries writes the registry snapshots to metadata.
func (s *Store) saveRegistries(ctx context.Context) error {
	if err := s.SetMetadata(ctx, keySurnames, s.surnames.Names()); err != nil {
		return err
	}
	if err := s.SetMetadata(ctx, keyGenderStats, s.gender.Snapshot()); err != nil {
		return err
	}
	for _, set := range model.TypeSets {
		if err := s.SetMetadata(ctx, set.Key(), s.types.Names(set)); err != nil {
			return err
		}
	}
	return nil
}

// RebuildOrderKeys recomputes every stored order key with the current
// collator, and re-sorts the surname list.
func (s *Store) RebuildOrderKeys(ctx context.Context) error {
	for _, t := range s.tables {
		kind := t.Kind()
		err := t.Scan(ctx, false, func(handle string, payload []byte) error {
			r, err := codec.DecodeRecord(kind, payload)
			if err != nil {
				return fmt.Errorf("rebuild order keys: %s %s: %w", kind, handle, err)
			}
			return t.SetOrderKey(ctx, handle, s.collator.Key(model.OrderText(r)))
		})
		if err != nil {
			return err
		}
	}
	s.surnames.Reset(s.surnames.Names())
	s.logger.Info("order keys rebuilt", "locale", s.collator.Locale())
	return nil
}

// Surnames returns the distinct primary surnames in collation order.
func (s *Store) Surnames() []string {
	return s.surnames.Names()
}

// GenderStats returns the given-name gender statistics. The caller must not
// modify them.
func (s *Store) GenderStats() *registry.GenderStats {
	return s.gender
}

// CustomTypes returns the user-defined type names recorded in a registry.
func (s *Store) CustomTypes(set model.TypeSet) []string {
	return s.types.Names(set)
}
