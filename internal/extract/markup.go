package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup extracts text from HTML. Script, style and noscript contents are
// dropped, block-level and line-break tags become line breaks, other tags
// become spaces, and entities are decoded. The result is the non-empty
// lines, trimmed and with inner whitespace collapsed, joined by "\n".
type Markup struct{}

// lineTags end the current line when opened or closed.
var lineTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Dt: true, atom.Dd: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Blockquote: true, atom.Pre: true, atom.Hr: true,
}

var skipTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
}

// ExtractText implements TextExtractor.
func (Markup) ExtractText(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	z := html.NewTokenizer(bytes.NewReader(data))
	var skipping atom.Atom
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or malformed input; keep what we have
			break
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if skipping != 0 {
				continue
			}
			if skipTags[tok.DataAtom] && tt == html.StartTagToken {
				skipping = tok.DataAtom
				continue
			}
			sb.WriteString(separator(tok.DataAtom))
		case html.EndTagToken:
			if skipping != 0 {
				if tok.DataAtom == skipping {
					skipping = 0
				}
				continue
			}
			sb.WriteString(separator(tok.DataAtom))
		case html.TextToken:
			if skipping == 0 {
				sb.WriteString(tok.Data)
			}
		}
	}
	return cleanLines(sb.String())
}

func separator(a atom.Atom) string {
	if lineTags[a] {
		return "\n"
	}
	return " "
}

// cleanLines trims each line, collapses inner whitespace and drops empty
// lines.
func cleanLines(s string) string {
	s = strings.ReplaceAll(s, "\r", "\n")
	var out []string
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
