package merge

import (
	"strings"

	"hijrical/internal/model"
)

// UpdatedMonths returns the months of next that are new or whose start,
// length or source differ from prev, in next's order.
func UpdatedMonths(prev, next []model.MonthDefinition) []model.MonthDefinition {
	old := make(map[model.MonthKey]model.MonthDefinition, len(prev))
	for _, d := range prev {
		old[d.Key()] = d
	}
	var out []model.MonthDefinition
	for _, d := range next {
		p, ok := old[d.Key()]
		if !ok || !model.SameDay(p.GregorianStartDate, d.GregorianStartDate) || p.Length != d.Length || p.Source != d.Source {
			out = append(out, d)
		}
	}
	return out
}

// UpdateMessage describes updated months for the user, e.g.
// "Calendar updated for Shaban 1447, Ramadan 1447." It is empty when
// nothing changed.
func UpdateMessage(months []model.MonthDefinition) string {
	if len(months) == 0 {
		return ""
	}
	labels := make([]string, len(months))
	for i, d := range months {
		labels[i] = d.Key().String()
	}
	return "Calendar updated for " + strings.Join(labels, ", ") + "."
}
