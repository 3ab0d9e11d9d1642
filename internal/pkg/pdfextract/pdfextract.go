package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Result is the plain text of a PDF plus its page count.
type Result struct {
	Text  string
	Pages int
}

// Extract reads the entire content of r and extracts plain text page by page.
// A PDF with no extractable text yields an empty Text and a nil error.
func Extract(r io.Reader) (*Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf failed: %w", err)
	}
	if len(b) == 0 {
		return &Result{}, nil
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}

	pages := pdfReader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d failed: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return &Result{Text: normalize(sb.String()), Pages: pages}, nil
}

// normalize trims every line and collapses runs of blank lines to one, keeping the
// paragraph breaks the chunker splits on.
func normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
