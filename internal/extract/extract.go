// Package extract converts raw source payloads (HTML pages, PDF documents)
// into plain text for the parsers, and discovers follow-up links in pages.
package extract

// TextExtractor converts a raw payload into plain text. Implementations
// never fail: unreadable input yields best-effort or empty text.
type TextExtractor interface {
	ExtractText(data []byte) string
}

// Func adapts a plain function to TextExtractor.
type Func func(data []byte) string

// ExtractText implements TextExtractor.
func (f Func) ExtractText(data []byte) string {
	return f(data)
}

// Plain treats the payload as text already.
var Plain = Func(func(data []byte) string { return string(data) })
