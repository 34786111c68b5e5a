package store

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"hijrical/internal/model"
)

// Overrides stores manual month-start overrides. Every entry is kept so a
// month's history can be shown; the active one is chosen at merge time.
type Overrides struct {
	f   *file[model.Override]
	now func() time.Time
}

// OpenOverrides loads the override store at path.
func OpenOverrides(path string) (*Overrides, error) {
	f, err := open[model.Override](path)
	if err != nil {
		return nil, err
	}
	return &Overrides{f: f, now: time.Now}, nil
}

// List returns all overrides in insertion order.
func (s *Overrides) List() []model.Override {
	return s.f.list()
}

// Add records a new override. ID and CreatedAt are assigned when empty.
func (s *Overrides) Add(o model.Override) (model.Override, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	if err := validate.Struct(o); err != nil {
		return model.Override{}, fmt.Errorf("override: %w", err)
	}
	if o.GregorianStartDate.IsZero() {
		return model.Override{}, errors.New("override: gregorian start date is required")
	}

	err := s.f.update(func(items []model.Override) ([]model.Override, error) {
		return append(items, o), nil
	})
	if err != nil {
		return model.Override{}, err
	}
	return o, nil
}

// Delete removes the override with id.
func (s *Overrides) Delete(id string) error {
	return s.f.update(func(items []model.Override) ([]model.Override, error) {
		i := slices.IndexFunc(items, func(o model.Override) bool { return o.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("override %s: %w", id, ErrNotFound)
		}
		return slices.Delete(items, i, i+1), nil
	})
}
