package parse

import (
	"maps"

	"hijrical/internal/extract"
	"hijrical/internal/model"
)

// Pipeline turns raw source bytes into month definitions:
// extract, normalize, parse, then build.
type Pipeline struct {
	Extractor extract.TextExtractor
	Parser    Parser
	// Options.Source defaults to the parser's source. Explicit lengths
	// from a LengthParser are added to Options.ExplicitLengths.
	Options BuildOptions
}

// Text returns the normalized text the parser sees.
func (p Pipeline) Text(data []byte) string {
	return Normalize(p.Extractor.ExtractText(data))
}

// Facts runs the pipeline up to the parser.
func (p Pipeline) Facts(data []byte) ([]model.MonthStartFact, error) {
	return p.Parser.ParseFacts(p.Text(data))
}

// Run runs the whole pipeline.
func (p Pipeline) Run(data []byte) ([]model.MonthDefinition, error) {
	text := p.Text(data)
	facts, err := p.Parser.ParseFacts(text)
	if err != nil {
		return nil, err
	}

	opts := p.Options
	if opts.Source == "" {
		opts.Source = p.Parser.Source()
	}
	if lp, ok := p.Parser.(LengthParser); ok {
		lengths := make(map[model.MonthKey]int, len(opts.ExplicitLengths))
		maps.Copy(lengths, lp.ExplicitLengths(text))
		// caller-supplied lengths win
		maps.Copy(lengths, opts.ExplicitLengths)
		opts.ExplicitLengths = lengths
	}
	return Build(facts, opts)
}
