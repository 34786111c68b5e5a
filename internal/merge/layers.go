package merge

import (
	"slices"

	"hijrical/internal/model"
)

// Layers are the inputs to a full calendar resolution.
type Layers struct {
	// Calculated is the baseline.
	Calculated []model.MonthDefinition
	// Authority overrides apply on top of the baseline when enabled.
	Authority        []model.Override
	AuthorityEnabled bool
	// Manual overrides apply last. Only the active entry per month is used.
	Manual        []model.Override
	ManualEnabled bool
}

// Resolve merges the layers in precedence order: baseline, authority,
// then manual. Months whose length is still undetermined are excluded.
func Resolve(l Layers) []model.MonthDefinition {
	merged := slices.Clone(l.Calculated)
	if l.AuthorityEnabled && len(l.Authority) > 0 {
		merged = ApplyOverrides(merged, l.Authority, model.SourceAuthority)
	}
	if l.ManualEnabled && len(l.Manual) > 0 {
		merged = ApplyOverrides(merged, ActiveManual(l.Manual), model.SourceManual)
	}
	merged = Valid(merged)
	SortByStart(merged)
	return merged
}

// ActiveManual returns the active override for each month: the one with
// the newest CreatedAt, or the later in the list on a tie. The result is
// ordered by month.
func ActiveManual(overrides []model.Override) []model.Override {
	active := make(map[model.MonthKey]model.Override)
	for _, o := range overrides {
		cur, ok := active[o.Key()]
		if !ok || !o.CreatedAt.Before(cur.CreatedAt) {
			active[o.Key()] = o
		}
	}
	out := make([]model.Override, 0, len(active))
	for _, o := range active {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b model.Override) int {
		return compareKeys(a.Key(), b.Key())
	})
	return out
}

// ActiveFor returns the active override for a month.
func ActiveFor(overrides []model.Override, key model.MonthKey) (model.Override, bool) {
	for _, o := range ActiveManual(overrides) {
		if o.Key() == key {
			return o, true
		}
	}
	return model.Override{}, false
}

// IsActive reports whether o is the active override for its month.
func IsActive(o model.Override, overrides []model.Override) bool {
	active, ok := ActiveFor(overrides, o.Key())
	return ok && active.ID == o.ID
}

// History returns every override for a month, newest first.
func History(overrides []model.Override, key model.MonthKey) []model.Override {
	var out []model.Override
	for i := len(overrides) - 1; i >= 0; i-- {
		if overrides[i].Key() == key {
			out = append(out, overrides[i])
		}
	}
	slices.SortStableFunc(out, func(a, b model.Override) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// InfersPreviousMonth reports whether the active override o is what sets
// the previous month's length: that month has no override of its own but
// came out of the merge as manual.
func InfersPreviousMonth(o model.Override, overrides []model.Override, merged []model.MonthDefinition) bool {
	if !IsActive(o, overrides) {
		return false
	}
	prev := o.Key().Prev()
	if _, ok := ActiveFor(overrides, prev); ok {
		return false
	}
	for _, d := range merged {
		if d.Key() == prev {
			return d.Source == model.SourceManual
		}
	}
	return false
}
