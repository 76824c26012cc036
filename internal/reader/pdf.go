package reader

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF extracts plain text page by page. Each non-empty page becomes a
// paragraph block with a [Page N] marker, so page boundaries survive as
// blank-line paragraph boundaries for the chunker.
func (r *Reader) readPDF(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Document{}, err
	}

	rd, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return Document{}, fmt.Errorf("pdf open: %w", err)
	}

	var parts []string
	for pageNo := 1; pageNo <= rd.NumPage(); pageNo++ {
		page := rd.Page(pageNo)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			r.log.Warn("reader.pdf.page_failed", "page", pageNo, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[Page %d]\n%s", pageNo, text))
	}

	return Document{
		Text: strings.Join(parts, "\n\n"),
		Metadata: map[string]any{
			"pages": rd.NumPage(),
		},
	}, nil
}
