// Package reader extracts normalized text from PDF, DOCX and TXT documents.
package reader

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/plainlegal/plainlegal/constants"
	"github.com/plainlegal/plainlegal/internal/common"
)

// Document is the normalized input to the processing pipeline: flattened
// UTF-8 text plus extraction metadata. Structural markers survive in the
// text stream ([Page N] for PDF pages, leading ## lines for DOCX headings).
type Document struct {
	Text     string
	Metadata map[string]any
}

type Reader struct {
	log *slog.Logger
}

func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{log: logger}
}

// Read dispatches on the file extension of name (the original filename;
// path may be an opaque upload location).
func (r *Reader) Read(path, name string) (Document, error) {
	ext := filepath.Ext(name)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return Document{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("unsupported file format: %s", ext), common.ErrInvalidInput)
	}

	r.log.Info("reader.read.start", "name", name, "format", format)

	var doc Document
	var err error
	switch format {
	case "PDF":
		doc, err = r.readPDF(path)
	case "DOCX":
		doc, err = r.readDOCX(path)
	case "TXT":
		doc, err = r.readTXT(path)
	}
	if err != nil {
		r.log.Error("reader.read.failed", "name", name, "format", format, "error", err)
		return Document{}, fmt.Errorf("read %s: %w", name, err)
	}

	r.log.Info("reader.read.ok", "name", name, "format", format, "chars", len(doc.Text))
	return doc, nil
}
