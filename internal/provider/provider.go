// Package provider fetches source calendars and turns them into month
// definitions or overrides.
package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"hijrical/internal/extract"
	"hijrical/internal/fetch"
	"hijrical/internal/model"
)

const (
	DefaultCalculatedURL   = "https://fiqhcouncil.org/calendar/"
	DefaultMoonsightingURL = "https://hilalcommittee.org/"
	DefaultMaxPosts        = 12
)

// CalendarProvider produces a full set of month definitions from one
// source.
type CalendarProvider interface {
	Source() model.Source
	FetchMonthDefinitions(ctx context.Context) ([]model.MonthDefinition, error)
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("provider: invalid URL %q: %w", raw, model.ErrInvalidData)
	}
	return u, nil
}

func locationOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func get(ctx context.Context, g fetch.Getter, u *url.URL) ([]byte, error) {
	return g.Get(ctx, u.String())
}

// documentGetter returns docs, or pages when no document getter is set.
func documentGetter(pages, docs fetch.Getter) fetch.Getter {
	if docs == nil {
		return pages
	}
	return docs
}

func pdfExtractor(x extract.TextExtractor) extract.TextExtractor {
	if x == nil {
		return extract.Document{}
	}
	return x
}
