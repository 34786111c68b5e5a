package provider

import (
	"context"
	"fmt"
	"time"

	"hijrical/internal/extract"
	"hijrical/internal/fetch"
	appLog "hijrical/internal/log"
	"hijrical/internal/model"
	"hijrical/internal/parse"
)

// Moonsighting reads a moonsighting committee's site. Recent news posts
// are scanned for month-start announcements; when none can be read the
// site's published PDF calendar is used.
type Moonsighting struct {
	SiteURL string
	Getter  fetch.Getter
	// Documents fetches the calendar PDF; nil means Getter.
	Documents fetch.Getter
	Location  *time.Location
	// MaxPosts caps how many news posts are fetched. Zero means
	// DefaultMaxPosts.
	MaxPosts int
	// PDF extracts text from the calendar document; nil means
	// extract.Document.
	PDF extract.TextExtractor
}

// NewMoonsighting creates a moonsighting provider. An empty siteURL uses
// DefaultMoonsightingURL.
func NewMoonsighting(siteURL string, g fetch.Getter, loc *time.Location) *Moonsighting {
	if siteURL == "" {
		siteURL = DefaultMoonsightingURL
	}
	return &Moonsighting{SiteURL: siteURL, Getter: g, Location: loc, MaxPosts: DefaultMaxPosts}
}

// Source implements CalendarProvider.
func (m *Moonsighting) Source() model.Source {
	return model.SourceMoonsighting
}

// FetchMonthDefinitions implements CalendarProvider. Definitions built from
// announcements may include the newest month with an undetermined length.
func (m *Moonsighting) FetchMonthDefinitions(ctx context.Context) ([]model.MonthDefinition, error) {
	defs, err := m.FetchAnnouncements(ctx)
	if err == nil && len(defs) > 0 {
		return defs, nil
	}
	if err != nil {
		appLog.Debug("moonsighting announcements unavailable, trying calendar PDF", "reason", err.Error())
	}
	return m.FetchCalendar(ctx)
}

// FetchAnnouncements builds definitions from the announcements in recent
// news posts. Posts that fail to load or carry no announcement are
// skipped.
func (m *Moonsighting) FetchAnnouncements(ctx context.Context) ([]model.MonthDefinition, error) {
	site, err := parseBase(m.SiteURL)
	if err != nil {
		return nil, err
	}
	newsURL := site.JoinPath("news")
	page, err := get(ctx, m.Getter, newsURL)
	if err != nil {
		return nil, fmt.Errorf("moonsighting: fetch news: %w", err)
	}

	links := extract.NewsLinks(page, newsURL)
	if len(links) == 0 {
		return nil, fmt.Errorf("moonsighting: no news posts: %w", model.ErrParsingFailed)
	}
	limit := m.MaxPosts
	if limit <= 0 {
		limit = DefaultMaxPosts
	}
	if len(links) > limit {
		links = links[:limit]
	}

	parser := parse.NewAnnouncementParser(locationOrLocal(m.Location))
	var facts []model.MonthStartFact
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		post, err := get(ctx, m.Getter, link)
		if err != nil {
			appLog.Debug("moonsighting post skipped", "path", link.Path, "reason", err.Error())
			continue
		}
		text := parse.Normalize(extract.Markup{}.ExtractText(post))
		if f, ok := parser.ParseFact(text); ok {
			facts = append(facts, f)
		}
	}

	defs, err := parse.Build(facts, parse.BuildOptions{
		Source:           model.SourceMoonsighting,
		KeepUndetermined: true,
	})
	if err != nil {
		return nil, fmt.Errorf("moonsighting: announcements: %w", err)
	}
	appLog.Info("moonsighting announcements parsed", "posts", len(links), "months", len(defs))
	return defs, nil
}

// FetchCalendar parses the latest calendar PDF linked from the site's
// front page.
func (m *Moonsighting) FetchCalendar(ctx context.Context) ([]model.MonthDefinition, error) {
	site, err := parseBase(m.SiteURL)
	if err != nil {
		return nil, err
	}
	page, err := get(ctx, m.Getter, site)
	if err != nil {
		return nil, fmt.Errorf("moonsighting: fetch site: %w", err)
	}
	pdfURL, ok := extract.PDFLink(page, site)
	if !ok {
		return nil, fmt.Errorf("moonsighting: no calendar PDF: %w", model.ErrParsingFailed)
	}
	doc, err := get(ctx, documentGetter(m.Getter, m.Documents), pdfURL)
	if err != nil {
		return nil, fmt.Errorf("moonsighting: fetch PDF: %w", err)
	}

	pipeline := parse.Pipeline{
		Extractor: pdfExtractor(m.PDF),
		Parser:    parse.NewCalendarParser(locationOrLocal(m.Location)),
	}
	defs, err := pipeline.Run(doc)
	if err != nil {
		return nil, fmt.Errorf("moonsighting: PDF: %w", err)
	}
	appLog.Info("moonsighting calendar parsed", "months", len(defs))
	return defs, nil
}
