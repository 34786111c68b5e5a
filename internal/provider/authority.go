package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hijrical/internal/fetch"
	appLog "hijrical/internal/log"
	"hijrical/internal/model"
)

// AuthorityInfo describes the authority publishing a feed.
type AuthorityInfo struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	UpdatedAt *int64 `json:"updatedAt,omitempty"`
}

// AuthorityMonth is one month start as published in a feed.
type AuthorityMonth struct {
	HijriYear          int    `json:"hijriYear"`
	HijriMonth         int    `json:"hijriMonth"`
	GregorianStartDate string `json:"gregorianStartDate"`
	UpdatedAt          *int64 `json:"updatedAt,omitempty"`
}

// AuthorityFeed is the JSON document served at an authority's feed URL.
type AuthorityFeed struct {
	Authority AuthorityInfo    `json:"authority"`
	Months    []AuthorityMonth `json:"months"`
}

// Authority reads month-start overrides published by a religious
// authority.
type Authority struct {
	FeedURL  string
	Getter   fetch.Getter
	Location *time.Location
}

// FetchFeed downloads and decodes the feed.
func (a *Authority) FetchFeed(ctx context.Context) (AuthorityFeed, error) {
	u, err := parseBase(a.FeedURL)
	if err != nil {
		return AuthorityFeed{}, err
	}
	body, err := get(ctx, a.Getter, u)
	if err != nil {
		return AuthorityFeed{}, fmt.Errorf("authority: fetch feed: %w", err)
	}
	var feed AuthorityFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return AuthorityFeed{}, fmt.Errorf("authority: decode feed: %v: %w", err, model.ErrInvalidData)
	}
	return feed, nil
}

// FetchOverrides returns the feed's authority and its month starts as
// overrides. Months whose date cannot be parsed are skipped.
func (a *Authority) FetchOverrides(ctx context.Context) (AuthorityInfo, []model.Override, error) {
	feed, err := a.FetchFeed(ctx)
	if err != nil {
		return AuthorityInfo{}, nil, err
	}
	return feed.Authority, Overrides(feed, locationOrLocal(a.Location)), nil
}

// Overrides converts feed months to overrides. Override ids are
// "<slug>:<year>-<month>".
func Overrides(feed AuthorityFeed, loc *time.Location) []model.Override {
	out := make([]model.Override, 0, len(feed.Months))
	for _, m := range feed.Months {
		start, err := model.ParseDate(m.GregorianStartDate, loc)
		if err != nil {
			appLog.Debug("authority month skipped", "slug", feed.Authority.Slug, "date", m.GregorianStartDate)
			continue
		}
		o := model.Override{
			ID:                 fmt.Sprintf("%s:%d-%d", feed.Authority.Slug, m.HijriYear, m.HijriMonth),
			HijriYear:          m.HijriYear,
			HijriMonth:         m.HijriMonth,
			GregorianStartDate: start,
		}
		if m.UpdatedAt != nil {
			o.CreatedAt = time.UnixMilli(*m.UpdatedAt).UTC()
		}
		out = append(out, o)
	}
	return out
}
