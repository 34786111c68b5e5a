package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	appLog "hijrical/internal/log"
)

// Document extracts the plain text of a PDF, one page after another
// separated by "\n". Unreadable documents, documents without pages and
// pages without text contribute nothing.
type Document struct{}

// ExtractText implements TextExtractor.
func (Document) ExtractText(data []byte) (text string) {
	if len(data) == 0 {
		return ""
	}
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("pdf extract panicked", fmt.Errorf("%v", r), "bytes", len(data))
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		appLog.Debug("pdf open failed", "err", err, "bytes", len(data))
		return ""
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			appLog.Debug("pdf page skipped", "page", i, "err", err)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n")
}
