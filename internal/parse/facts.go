package parse

import (
	"fmt"
	"slices"

	"hijrical/internal/model"
)

// Parser extracts month-start facts from normalized text. Implementations
// fail with an error wrapping model.ErrParsingFailed when the text yields
// fewer facts than they need.
type Parser interface {
	Source() model.Source
	ParseFacts(text string) ([]model.MonthStartFact, error)
}

// LengthParser is implemented by parsers whose sources state month lengths
// explicitly. Explicit lengths win over lengths derived from start gaps.
type LengthParser interface {
	ExplicitLengths(text string) map[model.MonthKey]int
}

// Dedupe keeps the first fact seen for each month. A later fact for the
// same month is discarded whether or not it agrees, so extraction order
// decides conflicts. Order of first appearance is preserved.
func Dedupe(facts []model.MonthStartFact) []model.MonthStartFact {
	seen := make(map[model.MonthKey]struct{}, len(facts))
	out := make([]model.MonthStartFact, 0, len(facts))
	for _, f := range facts {
		if _, ok := seen[f.Key()]; ok {
			continue
		}
		seen[f.Key()] = struct{}{}
		out = append(out, f)
	}
	return out
}

// sortFacts orders facts by Hijri year, then month, without touching the input.
func sortFacts(facts []model.MonthStartFact) []model.MonthStartFact {
	sorted := slices.Clone(facts)
	slices.SortStableFunc(sorted, func(a, b model.MonthStartFact) int {
		switch {
		case a.Key().Less(b.Key()):
			return -1
		case b.Key().Less(a.Key()):
			return 1
		}
		return 0
	})
	return sorted
}

func requireFacts(facts []model.MonthStartFact, minimum int, parser string) ([]model.MonthStartFact, error) {
	if len(facts) < minimum {
		return nil, fmt.Errorf("%s: found %d month starts, need %d: %w", parser, len(facts), minimum, model.ErrParsingFailed)
	}
	return facts, nil
}
