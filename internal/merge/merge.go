// Package merge layers month-start overrides onto a baseline calendar.
//
// Overrides carry only a start date. Lengths are re-derived from the gap
// to the following month, and a month whose successor was overridden takes
// the override's source, since the override confirms where it ends.
package merge

import (
	"slices"

	"hijrical/internal/model"
)

// ApplyOverrides returns base with each override's start date and source
// applied to its month, then every month's length recomputed from the gap
// to its successor when that gap is 29 or 30 days. A month not already
// manual whose successor was overridden is promoted to source as long as
// its recomputed length is valid.
//
// Overrides for months absent from base are ignored, though lengths are
// still recomputed; a later override for the same month replaces an earlier
// one. With no overrides at all, base comes back unchanged. Neither input
// is modified. The result is sorted by start date.
func ApplyOverrides(base []model.MonthDefinition, overrides []model.Override, source model.Source) []model.MonthDefinition {
	if len(overrides) == 0 {
		out := slices.Clone(base)
		SortByStart(out)
		return out
	}

	working := make(map[model.MonthKey]model.MonthDefinition, len(base))
	for _, d := range base {
		working[d.Key()] = d
	}

	overridden := make(map[model.MonthKey]bool, len(overrides))
	for _, o := range overrides {
		d, ok := working[o.Key()]
		if !ok {
			continue
		}
		d.GregorianStartDate = o.GregorianStartDate
		d.Source = source
		working[o.Key()] = d
		overridden[o.Key()] = true
	}

	keys := make([]model.MonthKey, 0, len(working))
	for k := range working {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	out := make([]model.MonthDefinition, 0, len(keys))
	for _, k := range keys {
		d := working[k]
		if next, ok := working[k.Next()]; ok {
			if gap := model.DaysBetween(d.GregorianStartDate, next.GregorianStartDate); model.ValidLength(gap) {
				d.Length = gap
				if d.Source != model.SourceManual && overridden[k.Next()] {
					d.Source = source
				}
			}
		}
		out = append(out, d)
	}
	SortByStart(out)
	return out
}

// SortByStart orders definitions by start date, then key.
func SortByStart(defs []model.MonthDefinition) {
	slices.SortStableFunc(defs, func(a, b model.MonthDefinition) int {
		if c := a.GregorianStartDate.Compare(b.GregorianStartDate); c != 0 {
			return c
		}
		return compareKeys(a.Key(), b.Key())
	})
}

// Valid drops definitions whose length is undetermined.
func Valid(defs []model.MonthDefinition) []model.MonthDefinition {
	out := make([]model.MonthDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Valid() {
			out = append(out, d)
		}
	}
	return out
}

func compareKeys(a, b model.MonthKey) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}
