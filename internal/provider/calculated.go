package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hijrical/internal/extract"
	"hijrical/internal/fetch"
	appLog "hijrical/internal/log"
	"hijrical/internal/model"
	"hijrical/internal/parse"
)

// Calculated reads the published calculated calendar. The page is parsed
// as a table first; when that yields nothing the page's PDF calendar is
// fetched and parsed instead.
type Calculated struct {
	URL    string
	Getter fetch.Getter
	// Documents fetches the fallback PDF; nil means Getter.
	Documents   fetch.Getter
	Location    *time.Location
	PDFFallback bool
	// PDF extracts text from the fallback document; nil means
	// extract.Document.
	PDF extract.TextExtractor
}

// NewCalculated creates a calculated provider for pageURL with PDF
// fallback enabled. An empty pageURL uses DefaultCalculatedURL.
func NewCalculated(pageURL string, g fetch.Getter, loc *time.Location) *Calculated {
	if pageURL == "" {
		pageURL = DefaultCalculatedURL
	}
	return &Calculated{URL: pageURL, Getter: g, Location: loc, PDFFallback: true}
}

// Source implements CalendarProvider.
func (c *Calculated) Source() model.Source {
	return model.SourceCalculated
}

// FetchMonthDefinitions implements CalendarProvider.
func (c *Calculated) FetchMonthDefinitions(ctx context.Context) ([]model.MonthDefinition, error) {
	base, err := parseBase(c.URL)
	if err != nil {
		return nil, err
	}
	page, err := get(ctx, c.Getter, base)
	if err != nil {
		return nil, fmt.Errorf("calculated: fetch page: %w", err)
	}

	parser := parse.NewTabularParser(locationOrLocal(c.Location))
	defs, err := parse.Pipeline{Extractor: extract.Markup{}, Parser: parser}.Run(page)
	if err == nil {
		appLog.Info("calculated calendar parsed", "source", "page", "months", len(defs))
		return defs, nil
	}
	if !c.PDFFallback || !errors.Is(err, model.ErrParsingFailed) {
		return nil, fmt.Errorf("calculated: %w", err)
	}

	pdfURL, ok := extract.PDFLink(page, base)
	if !ok {
		return nil, fmt.Errorf("calculated: %w", err)
	}
	appLog.Debug("calculated page had no table, trying PDF", "pdf", pdfURL.Path)

	doc, err := get(ctx, documentGetter(c.Getter, c.Documents), pdfURL)
	if err != nil {
		return nil, fmt.Errorf("calculated: fetch PDF: %w", err)
	}
	defs, err = parse.Pipeline{Extractor: pdfExtractor(c.PDF), Parser: parser}.Run(doc)
	if err != nil {
		return nil, fmt.Errorf("calculated: PDF: %w", err)
	}
	appLog.Info("calculated calendar parsed", "source", "pdf", "months", len(defs))
	return defs, nil
}
