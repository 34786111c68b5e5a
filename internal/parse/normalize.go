// Package parse turns text published by calendar authorities into Hijri
// month-start facts and month definitions.
//
// Everything here is a pure function of its input: no I/O, no shared
// mutable state. Parsers expect text that has been through Normalize.
package parse

import "strings"

var typography = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u2018", "'",
	"\u2019", "'",
	"\u02bc", "'",
	"\u2032", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2015", "-",
	"\u2212", "-",
)

// Normalize replaces typographic quotes, dashes and non-breaking spaces
// with ASCII and canonicalizes line breaks to "\n".
func Normalize(text string) string {
	return typography.Replace(text)
}
