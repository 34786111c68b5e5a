package parse

import (
	"fmt"

	"hijrical/internal/model"
)

// BuildOptions controls how facts become month definitions.
type BuildOptions struct {
	// Source tags every produced definition.
	Source model.Source
	// ExplicitLengths take precedence over lengths derived from the gap to
	// the next fact. Values other than 29 or 30 are ignored.
	ExplicitLengths map[model.MonthKey]int
	// KeepUndetermined retains months whose length cannot be derived, with
	// Length 0, instead of dropping them. Used for single announcements,
	// where the newest month start is known before its end is.
	KeepUndetermined bool
}

// Build turns month-start facts into month definitions. Facts are deduped
// and sorted by Hijri key; each month's length is its explicit length if
// one is stated, else the day gap to the next fact when that gap is 29 or
// 30. Build fails with model.ErrParsingFailed on empty input or when no
// definition survives.
func Build(facts []model.MonthStartFact, opts BuildOptions) ([]model.MonthDefinition, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("build: no month starts: %w", model.ErrParsingFailed)
	}
	sorted := sortFacts(Dedupe(facts))

	defs := make([]model.MonthDefinition, 0, len(sorted))
	for i, f := range sorted {
		length := 0
		if n, ok := opts.ExplicitLengths[f.Key()]; ok && model.ValidLength(n) {
			length = n
		} else if i+1 < len(sorted) {
			if gap := model.DaysBetween(f.GregorianStartDate, sorted[i+1].GregorianStartDate); model.ValidLength(gap) {
				length = gap
			}
		}
		if length == 0 && !opts.KeepUndetermined {
			continue
		}
		defs = append(defs, model.MonthDefinition{
			HijriYear:          f.HijriYear,
			HijriMonth:         f.HijriMonth,
			GregorianStartDate: f.GregorianStartDate,
			Length:             length,
			Source:             opts.Source,
		})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("build: %d month starts but no month length could be derived: %w", len(sorted), model.ErrParsingFailed)
	}
	return defs, nil
}
