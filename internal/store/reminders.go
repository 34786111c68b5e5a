package store

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"hijrical/internal/model"
)

// Reminders stores user reminders.
type Reminders struct {
	f *file[model.Reminder]
}

// OpenReminders loads the reminder store at path.
func OpenReminders(path string) (*Reminders, error) {
	f, err := open[model.Reminder](path)
	if err != nil {
		return nil, err
	}
	return &Reminders{f: f}, nil
}

// List returns all reminders in insertion order.
func (s *Reminders) List() []model.Reminder {
	return s.f.list()
}

// Get returns the reminder with id.
func (s *Reminders) Get(id string) (model.Reminder, bool) {
	for _, r := range s.f.list() {
		if r.ID == id {
			return r, true
		}
	}
	return model.Reminder{}, false
}

// Save inserts r, or replaces the reminder with the same id. A missing id
// is assigned and a duration below one day is raised to one.
func (s *Reminders) Save(r model.Reminder) (model.Reminder, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.DurationDays = max(r.DurationDays, 1)
	if err := validate.Struct(r); err != nil {
		return model.Reminder{}, fmt.Errorf("reminder: %w", err)
	}

	err := s.f.update(func(items []model.Reminder) ([]model.Reminder, error) {
		if i := slices.IndexFunc(items, func(x model.Reminder) bool { return x.ID == r.ID }); i >= 0 {
			items[i] = r
			return items, nil
		}
		return append(items, r), nil
	})
	if err != nil {
		return model.Reminder{}, err
	}
	return r, nil
}

// Delete removes the reminder with id.
func (s *Reminders) Delete(id string) error {
	return s.f.update(func(items []model.Reminder) ([]model.Reminder, error) {
		i := slices.IndexFunc(items, func(r model.Reminder) bool { return r.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
		}
		return slices.Delete(items, i, i+1), nil
	})
}
